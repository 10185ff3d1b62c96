// Package notify keeps the device's pending reminders and delivers them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"salat-go/internal/salat"
)

const reminderKeyPrefix = "reminder_"

// StoreNotifier is a salat.Notifier whose pending set lives in the device
// key-value store, so reminders survive restarts of the dispatcher.
type StoreNotifier struct {
	kv         salat.KeyValueStore
	granted    bool
	maxPending int
}

var _ salat.Notifier = (*StoreNotifier)(nil)

// NewStoreNotifier creates a notifier. granted is the user's notification
// permission; maxPending of zero means unlimited.
func NewStoreNotifier(kv salat.KeyValueStore, granted bool, maxPending int) *StoreNotifier {
	return &StoreNotifier{kv: kv, granted: granted, maxPending: maxPending}
}

func reminderKey(id int) string {
	return reminderKeyPrefix + strconv.Itoa(id)
}

func (n *StoreNotifier) RequestPermission(context.Context) (bool, error) {
	return n.granted, nil
}

// Pending returns every stored reminder, earliest first.
func (n *StoreNotifier) Pending(ctx context.Context) ([]salat.Reminder, error) {
	keys, err := n.kv.Keys(ctx, reminderKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}

	out := make([]salat.Reminder, 0, len(keys))
	for _, key := range keys {
		if _, err := strconv.Atoi(strings.TrimPrefix(key, reminderKeyPrefix)); err != nil {
			continue
		}
		raw, ok, err := n.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var r salat.Reminder
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b salat.Reminder) int {
		if c := a.FiresAt.Compare(b.FiresAt); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out, nil
}

func (n *StoreNotifier) Cancel(ctx context.Context, ids []int) error {
	for _, id := range ids {
		if err := n.kv.Delete(ctx, reminderKey(id)); err != nil {
			return fmt.Errorf("cancelling reminder %d: %w", id, err)
		}
	}
	return nil
}

func (n *StoreNotifier) ScheduleBatch(ctx context.Context, reminders []salat.Reminder) error {
	for _, r := range reminders {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding reminder %d: %w", r.ID, err)
		}
		if err := n.kv.Set(ctx, reminderKey(r.ID), string(data)); err != nil {
			return fmt.Errorf("storing reminder %d: %w", r.ID, err)
		}
	}
	return nil
}

func (n *StoreNotifier) MaxPending() int {
	return n.maxPending
}

// Due returns the pending reminders whose fire time is at or before now.
func (n *StoreNotifier) Due(ctx context.Context, now time.Time) ([]salat.Reminder, error) {
	pending, err := n.Pending(ctx)
	if err != nil {
		return nil, err
	}
	var due []salat.Reminder
	for _, r := range pending {
		if r.FiresAt.After(now) {
			break
		}
		due = append(due, r)
	}
	return due, nil
}
