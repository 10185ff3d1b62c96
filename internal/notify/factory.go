package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// NewSenderFromConfig creates the Sender named by cfg.Sender.
func NewSenderFromConfig(ctx context.Context, cfg config.RemindersConfig, deviceID string, logger salat.Logger) (Sender, error) {
	switch cfg.Sender {
	case "log", "":
		return NewLogSender(logger), nil
	case "mqtt":
		clientID := cfg.MQTTClientID
		if clientID == "" {
			clientID = "salat-" + deviceID
		}
		return NewMQTTSender(cfg.MQTTBroker, clientID, cfg.MQTTTopicPrefix, logger)
	case "fcm":
		return NewFCMSender(ctx, cfg.FCMCredentialsFile, cfg.FCMDeviceToken)
	default:
		return nil, fmt.Errorf("unknown reminder sender: %s", cfg.Sender)
	}
}

// NewFCMSender initializes a Firebase app from a service-account file.
func NewFCMSender(ctx context.Context, credentialsFile, deviceToken string) (*FCMSender, error) {
	if deviceToken == "" {
		return nil, fmt.Errorf("fcm sender requires a device token")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting messaging client: %w", err)
	}
	return &FCMSender{client: client, token: deviceToken}, nil
}
