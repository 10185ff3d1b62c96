package salat

import (
	"context"
	"fmt"
	"time"
)

// Plan is the outcome of merging local and remote histories.
type Plan struct {
	// Upserts are the records the remote store must receive, ascending by date.
	Upserts []DayRecord
	// LocalWrites are merged and remote-only records to store locally.
	LocalWrites []DayRecord

	Uploaded   int
	Merged     int
	Downloaded int
}

// PlanReconciliation computes the field-wise OR merge of local and remote.
//
// Local-only dates are uploaded verbatim. Dates on both sides are merged; the
// merge is uploaded when it differs from the remote copy and always written
// locally. Remote-only dates are written locally as-is.
func PlanReconciliation(local, remote []DayRecord) Plan {
	localByDate := make(map[Date]DayRecord, len(local))
	for _, r := range local {
		localByDate[r.Date] = r
	}
	remoteByDate := make(map[Date]DayRecord, len(remote))
	for _, r := range remote {
		remoteByDate[r.Date] = r
	}

	var plan Plan
	for _, l := range sortedRecords(localByDate) {
		rem, ok := remoteByDate[l.Date]
		if !ok {
			plan.Upserts = append(plan.Upserts, l)
			plan.Uploaded++
			continue
		}
		merged := l.Merge(rem)
		if !merged.SameFields(rem) {
			plan.Upserts = append(plan.Upserts, merged)
			plan.Merged++
		}
		plan.LocalWrites = append(plan.LocalWrites, merged)
	}
	for _, rem := range sortedRecords(remoteByDate) {
		if _, ok := localByDate[rem.Date]; !ok {
			plan.LocalWrites = append(plan.LocalWrites, rem)
			plan.Downloaded++
		}
	}
	return plan
}

func sortedRecords(m map[Date]DayRecord) []DayRecord {
	out := make([]DayRecord, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	SortRecords(out)
	return out
}

// Reconciler runs full-history merge passes between the local store and the
// remote store.
type Reconciler struct {
	store   *DayStore
	remote  RemoteStore
	logger  Logger
	timeout time.Duration
}

// NewReconciler creates a Reconciler. timeout bounds each remote call; zero
// means no bound beyond ctx.
func NewReconciler(store *DayStore, remote RemoteStore, logger Logger, timeout time.Duration) *Reconciler {
	return &Reconciler{store: store, remote: remote, logger: logger, timeout: timeout}
}

// Reconcile performs one pass for userID. The remote read completes before any
// write. A failed read leaves local records untouched; any failure leaves the
// pending flag set so the next reconnect retries. Only one pass per state may run at a time.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, state *SyncState) (Plan, error) {
	if userID == "" {
		return Plan{}, ErrNotSignedIn
	}
	if !state.begin() {
		return Plan{}, ErrSyncInProgress
	}
	defer state.end()

	local := r.store.GetAll(ctx)

	remote, err := r.selectAll(ctx, userID)
	if err != nil {
		state.MarkPending(ctx)
		return Plan{}, fmt.Errorf("reading remote history: %w", err)
	}

	plan := PlanReconciliation(local, remote)

	for _, rec := range plan.LocalWrites {
		if err := r.store.Put(ctx, rec); err != nil {
			r.logger.Warn("local merge write failed", "date", rec.Date.String(), "error", err)
		}
	}

	if len(plan.Upserts) > 0 {
		if err := r.upsert(ctx, userID, plan.Upserts); err != nil {
			state.MarkPending(ctx)
			return plan, fmt.Errorf("uploading merged history: %w", err)
		}
	}

	state.complete(ctx)
	r.logger.Info("reconciliation complete",
		"user", userID,
		"uploaded", plan.Uploaded,
		"merged", plan.Merged,
		"downloaded", plan.Downloaded)
	return plan, nil
}

func (r *Reconciler) selectAll(ctx context.Context, userID string) ([]DayRecord, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.remote.Select(ctx, userID, Date{}, Date{})
}

func (r *Reconciler) upsert(ctx context.Context, userID string, records []DayRecord) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.remote.Upsert(ctx, userID, records)
}

func (r *Reconciler) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
