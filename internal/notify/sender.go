package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/messaging"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"salat-go/internal/salat"
)

// Sender delivers one reminder to the user.
type Sender interface {
	Send(ctx context.Context, r salat.Reminder) error
	Close() error
}

// LogSender writes reminders to the log. It is the default for a terminal
// install where the log is tailed.
type LogSender struct {
	logger salat.Logger
}

func NewLogSender(logger salat.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, r salat.Reminder) error {
	s.logger.Info(r.Title, "id", r.ID, "channel", string(r.Channel), "body", r.Body, "fires_at", r.FiresAt.Format(time.RFC3339))
	return nil
}

func (s *LogSender) Close() error { return nil }

// publisher is the part of mqtt.Client the MQTT sender needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// mqttPublishTimeout bounds the wait for a publish acknowledgement.
const mqttPublishTimeout = 10 * time.Second

// MQTTSender publishes reminders as JSON on <prefix>/<channel>.
type MQTTSender struct {
	client      publisher
	disconnect  func()
	topicPrefix string
}

// NewMQTTSender connects to broker and returns a sender.
func NewMQTTSender(broker, clientID, topicPrefix string, logger salat.Logger) (*MQTTSender, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("connected to MQTT broker", "broker", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttPublishTimeout) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	return &MQTTSender{
		client:      client,
		disconnect:  func() { client.Disconnect(250) },
		topicPrefix: strings.TrimRight(topicPrefix, "/"),
	}, nil
}

func (s *MQTTSender) topic(ch salat.Channel) string {
	if s.topicPrefix == "" {
		return string(ch)
	}
	return s.topicPrefix + "/" + string(ch)
}

func (s *MQTTSender) Send(ctx context.Context, r salat.Reminder) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reminder: %w", err)
	}
	token := s.client.Publish(s.topic(r.Channel), 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("publishing reminder %d: timed out", r.ID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing reminder %d: %w", r.ID, err)
	}
	return nil
}

func (s *MQTTSender) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}

// messenger is the part of the FCM messaging client the sender needs.
type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender pushes reminders to one device through Firebase Cloud Messaging.
type FCMSender struct {
	client messenger
	token  string
}

func (s *FCMSender) Send(ctx context.Context, r salat.Reminder) error {
	_, err := s.client.Send(ctx, fcmMessage(s.token, r))
	if err != nil {
		return fmt.Errorf("sending push for reminder %d: %w", r.ID, err)
	}
	return nil
}

func (s *FCMSender) Close() error { return nil }

func fcmMessage(token string, r salat.Reminder) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: r.Title,
			Body:  r.Body,
		},
		Data: map[string]string{
			"id":       strconv.Itoa(r.ID),
			"channel":  string(r.Channel),
			"fires_at": r.FiresAt.UTC().Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: string(r.Channel),
			},
		},
	}
}
