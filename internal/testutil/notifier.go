package testutil

import (
	"context"
	"slices"
	"sync"

	"salat-go/internal/salat"
)

// RecordingNotifier is an in-memory salat.Notifier that records batches.
type RecordingNotifier struct {
	mu      sync.Mutex
	pending map[int]salat.Reminder

	Granted bool
	Limit   int
	Batches [][]salat.Reminder
	Cancels [][]int
}

var _ salat.Notifier = (*RecordingNotifier)(nil)

// NewRecordingNotifier creates a notifier with permission granted and no limit.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{pending: make(map[int]salat.Reminder), Granted: true}
}

func (n *RecordingNotifier) RequestPermission(context.Context) (bool, error) {
	return n.Granted, nil
}

func (n *RecordingNotifier) Pending(context.Context) ([]salat.Reminder, error) {
	return n.PendingReminders(), nil
}

func (n *RecordingNotifier) Cancel(_ context.Context, ids []int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Cancels = append(n.Cancels, append([]int(nil), ids...))
	for _, id := range ids {
		delete(n.pending, id)
	}
	return nil
}

func (n *RecordingNotifier) ScheduleBatch(_ context.Context, reminders []salat.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Batches = append(n.Batches, append([]salat.Reminder(nil), reminders...))
	for _, r := range reminders {
		n.pending[r.ID] = r
	}
	return nil
}

func (n *RecordingNotifier) MaxPending() int { return n.Limit }

// PendingReminders returns the pending set ordered by id.
func (n *RecordingNotifier) PendingReminders() []salat.Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]salat.Reminder, 0, len(n.pending))
	for _, r := range n.pending {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b salat.Reminder) int { return a.ID - b.ID })
	return out
}
