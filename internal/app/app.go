package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"salat-go/internal/auth"
	"salat-go/internal/cache"
	"salat-go/internal/config"
	"salat-go/internal/database"
	"salat-go/internal/encryption"
	"salat-go/internal/notify"
	"salat-go/internal/prayertimes"
	"salat-go/internal/remote"
	"salat-go/internal/salat"
)

// upcomingFastWindow is how far ahead `salat fasts` looks.
const upcomingFastWindow = 14

// SalatApp is the application layer between the CLI and the salat engine.
// It constructs all dependencies from config, exposes operations that take
// raw CLI strings, and releases resources on Close.
type SalatApp struct {
	cfg    *config.Config
	clock  salat.Clock
	idgen  salat.IDGenerator
	logger salat.Logger

	db        *database.SQLiteStore
	cacheKV   salat.KeyValueStore
	remote    salat.RemoteStore
	auth      auth.Provider
	encryptor salat.Encryptor

	store     *salat.DayStore
	session   *salat.Session
	service   *salat.Service
	times     *salat.PrayerTimeCache
	notifier  *notify.StoreNotifier
	scheduler *salat.ReminderScheduler
	feed      *salat.LocationFeed
	resched   *salat.Rescheduler

	op       *Operation
	logFile  *os.File
	cleanups []func()
}

// Options tune NewSalatApp.
type Options struct {
	// Operation names the CLI command being run (e.g. "Mark", "Sync").
	Operation  string
	Parameters string
	Verbose    bool
}

// NewSalatApp creates a fully wired SalatApp from cfg. Signing in happens
// here, so a signed-in device reconciles once per invocation before the
// command runs. The caller must call Close when done.
func NewSalatApp(ctx context.Context, cfg *config.Config, opts Options) (*SalatApp, error) {
	clock := salat.RealClock{}
	idgen := salat.UUIDGenerator{}
	op := NewOperation(opts.Operation, opts.Parameters, idgen, clock)

	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &SalatApp{cfg: cfg, clock: clock, idgen: idgen, logger: logger, op: op, logFile: logFile}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("operation started", "operation", op.Name, "parameters", op.Parameters)
	return a, nil
}

func (a *SalatApp) wire(ctx context.Context) error {
	cfg := a.cfg

	db, err := database.NewStoreFromConfig(cfg.Database, cfg.DeviceID, a.clock)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db
	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	if a.cacheKV, err = cache.NewCacheStoreFromConfig(cfg.Cache, db); err != nil {
		return fmt.Errorf("creating prayer-time cache: %w", err)
	}
	if a.remote, err = remote.NewRemoteFromConfig(ctx, cfg.Remote); err != nil {
		return fmt.Errorf("creating remote store: %w", err)
	}
	if a.auth, err = auth.NewAuthFromConfig(cfg.Auth, db, a.clock); err != nil {
		return fmt.Errorf("creating auth provider: %w", err)
	}
	if a.encryptor, err = encryption.NewEncryptorFromConfig(cfg.Encryption); err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	timeout := cfg.Remote.Timeout()
	a.store = salat.NewDayStore(db, a.logger)
	state := salat.NewSyncState(db, a.clock, a.logger)
	reconciler := salat.NewReconciler(a.store, a.remote, a.logger, timeout)
	a.session = salat.NewSession(reconciler, state, a.logger)
	a.service = salat.NewService(a.store, a.remote, a.session, db, a.clock, a.logger, timeout)

	provider := prayertimes.NewClient(cfg.Provider, a.logger)
	a.times = salat.NewPrayerTimeCache(a.cacheKV, provider, a.logger, cfg.Provider.SehriOffsetMinutes, cfg.Provider.Timeout())

	a.notifier = notify.NewStoreNotifier(db, cfg.Reminders.Permission, cfg.Reminders.MaxPending)
	a.scheduler = salat.NewReminderScheduler(a.notifier, a.clock, a.logger, salat.ReminderOptions{
		SehriLead: time.Duration(cfg.Reminders.SehriLeadMinutes) * time.Minute,
		BatchSize: cfg.Reminders.BatchSize,
	})

	a.feed = salat.NewLocationFeed(db, a.logger)
	if err := a.seedLocation(ctx); err != nil {
		return err
	}
	a.resched = salat.NewRescheduler(a.times, a.scheduler, a.clock, a.logger, cfg.Reminders.RescheduleDistanceKm, cfg.Provider.RamadanShiftDays, cfg.Reminders.Enabled)
	a.cleanups = append(a.cleanups, a.resched.Follow(a.feed))

	detach, err := a.session.Attach(ctx, a.auth)
	if err != nil {
		return fmt.Errorf("attaching session: %w", err)
	}
	a.cleanups = append(a.cleanups, detach)
	return nil
}

// seedLocation publishes the configured location when none has been chosen.
func (a *SalatApp) seedLocation(ctx context.Context) error {
	if _, ok := a.feed.Current(ctx); ok {
		return nil
	}
	loc := salat.Location{Name: a.cfg.Location.Name, Latitude: a.cfg.Location.Latitude, Longitude: a.cfg.Location.Longitude}
	if !loc.Valid() {
		return nil
	}
	if err := a.feed.Publish(ctx, loc); err != nil {
		return fmt.Errorf("seeding location: %w", err)
	}
	return nil
}

// Fail marks the running operation as failed for the closing log line.
func (a *SalatApp) Fail() {
	a.op.Fail()
}

// Today is the current local calendar date.
func (a *SalatApp) Today() salat.Date {
	return a.service.Today()
}

// ParseDate accepts YYYY-MM-DD, "today" and "yesterday". Empty means today.
func (a *SalatApp) ParseDate(raw string) (salat.Date, error) {
	switch raw {
	case "", "today":
		return a.Today(), nil
	case "yesterday":
		return a.Today().AddDays(-1), nil
	}
	return salat.ParseDate(raw)
}

// Mark sets the given prayers on date to done.
func (a *SalatApp) Mark(ctx context.Context, rawDate string, prayers []string, done bool) (salat.DayRecord, error) {
	date, err := a.ParseDate(rawDate)
	if err != nil {
		return salat.DayRecord{}, err
	}
	patch := salat.Patch{}
	for _, name := range prayers {
		p, err := salat.ParsePrayer(name)
		if err != nil {
			return salat.DayRecord{}, err
		}
		patch[p] = done
	}
	return a.service.Update(ctx, date, patch), nil
}

// Reset clears every prayer on date.
func (a *SalatApp) Reset(ctx context.Context, rawDate string) (salat.DayRecord, error) {
	date, err := a.ParseDate(rawDate)
	if err != nil {
		return salat.DayRecord{}, err
	}
	return a.service.Reset(ctx, date), nil
}

// Day returns the record for rawDate.
func (a *SalatApp) Day(ctx context.Context, rawDate string) (salat.DayRecord, error) {
	date, err := a.ParseDate(rawDate)
	if err != nil {
		return salat.DayRecord{}, err
	}
	return a.service.Day(ctx, date), nil
}

// History returns the records for the last days days, oldest first.
func (a *SalatApp) History(ctx context.Context, days int) []salat.DayRecord {
	today := a.Today()
	return a.service.History(ctx, today.AddDays(-(days - 1)), today)
}

func (a *SalatApp) Streaks(ctx context.Context) salat.StreakResult {
	return a.service.Streaks(ctx)
}

func (a *SalatApp) WeeklySummary(ctx context.Context) salat.WeeklySummary {
	return a.service.WeeklySummary(ctx)
}

func (a *SalatApp) DismissWeeklySummary(ctx context.Context) error {
	return a.service.DismissWeeklySummary(ctx)
}

// ToggleQaza flips this week's qaza mark for the named prayer.
func (a *SalatApp) ToggleQaza(ctx context.Context, name string) (bool, error) {
	p, err := salat.ParsePrayer(name)
	if err != nil {
		return false, err
	}
	return a.service.ToggleQaza(ctx, p)
}

func (a *SalatApp) MonthHistory(ctx context.Context, year int, month time.Month) []salat.DayCount {
	return a.service.MonthHistory(ctx, year, month)
}

func (a *SalatApp) YearlyOverview(ctx context.Context, year int) salat.YearlyOverview {
	return a.service.YearlyOverview(ctx, year)
}

// MissedToday lists today's prayers whose nudge hour has passed unmarked.
func (a *SalatApp) MissedToday(ctx context.Context) []salat.Prayer {
	return salat.MissedPrayers(a.clock.Now(), a.service.Day(ctx, a.Today()))
}

// UpcomingFasts lists the Monday and Thursday fasts in the next two weeks.
func (a *SalatApp) UpcomingFasts() []salat.Date {
	return salat.UpcomingFasts(a.Today(), upcomingFastWindow)
}

// SyncStatus describes the device's sync bookkeeping.
type SyncStatus struct {
	UserID     string
	Remote     string
	Pending    bool
	LastSynced time.Time
	HasSynced  bool
}

func (a *SalatApp) SyncStatus(ctx context.Context) SyncStatus {
	state := a.session.State()
	last, _ := state.LastSynced(ctx)
	return SyncStatus{
		UserID:     a.session.UserID(),
		Remote:     a.cfg.Remote.Type,
		Pending:    state.Pending(ctx),
		LastSynced: last,
		HasSynced:  state.HasSynced(),
	}
}

// Sync runs a reconciliation pass now, regardless of the session latch.
func (a *SalatApp) Sync(ctx context.Context) (salat.Plan, error) {
	if err := a.remote.ValidateSetup(ctx); err != nil {
		return salat.Plan{}, fmt.Errorf("remote not ready: %w", err)
	}
	return a.session.SyncNow(ctx)
}

// Login signs in with credential; the session reconciles on success.
func (a *SalatApp) Login(ctx context.Context, credential string) (string, error) {
	return a.auth.Login(ctx, credential)
}

func (a *SalatApp) Logout(ctx context.Context) error {
	return a.auth.Logout(ctx)
}

// Location returns the current location.
func (a *SalatApp) Location(ctx context.Context) (salat.Location, bool) {
	return a.feed.Current(ctx)
}

// SetLocation publishes loc; reminders follow when it moved far enough.
func (a *SalatApp) SetLocation(ctx context.Context, loc salat.Location) error {
	if !loc.Valid() {
		return fmt.Errorf("invalid location %s", loc)
	}
	return a.feed.Publish(ctx, loc)
}

var ErrNoLocation = errors.New("no location set: run `salat location set` first")

// MonthTimes returns the prayer calendar for year/month at the current
// location. With wait set it waits for a background refresh of cached data.
func (a *SalatApp) MonthTimes(ctx context.Context, year int, month time.Month, wait bool) ([]salat.PrayerDay, error) {
	loc, ok := a.feed.Current(ctx)
	if !ok {
		return nil, ErrNoLocation
	}
	mt, err := a.times.FetchMonth(ctx, loc, year, month)
	if err != nil {
		return nil, err
	}
	if wait {
		return mt.Await(ctx), nil
	}
	return mt.Days(), nil
}

// RamadanTimes narrows days to Ramadan, shifted per config.
func (a *SalatApp) RamadanTimes(days []salat.PrayerDay) []salat.PrayerDay {
	return salat.RamadanDays(days, a.cfg.Provider.RamadanShiftDays)
}

// TodayTimes returns today's entry from the calendar.
func (a *SalatApp) TodayTimes(ctx context.Context) (salat.PrayerDay, error) {
	today := a.Today()
	days, err := a.MonthTimes(ctx, today.Year, today.Month, false)
	if err != nil {
		return salat.PrayerDay{}, err
	}
	day, ok := salat.FindDay(days, today)
	if !ok {
		return salat.PrayerDay{}, fmt.Errorf("no prayer times for %s", today)
	}
	return day, nil
}

// ScheduleReminders replaces the pending reminders with the upcoming calendar.
func (a *SalatApp) ScheduleReminders(ctx context.Context) (int, error) {
	loc, ok := a.feed.Current(ctx)
	if !ok {
		return 0, ErrNoLocation
	}
	if !a.cfg.Reminders.Enabled {
		return 0, nil
	}
	return a.resched.Reschedule(ctx, loc)
}

func (a *SalatApp) CancelReminders(ctx context.Context) error {
	return a.scheduler.CancelAll(ctx)
}

func (a *SalatApp) PendingReminders(ctx context.Context) ([]salat.Reminder, error) {
	return a.notifier.Pending(ctx)
}

// RunReminders delivers reminders through the configured sender until ctx
// is done.
func (a *SalatApp) RunReminders(ctx context.Context) error {
	sender, err := notify.NewSenderFromConfig(ctx, a.cfg.Reminders, a.cfg.DeviceID, a.logger)
	if err != nil {
		return fmt.Errorf("creating reminder sender: %w", err)
	}
	defer sender.Close()

	d := notify.NewDispatcher(a.notifier, sender, a.store, a.db, a.clock, a.logger, notify.DispatcherOptions{
		Interval:      a.cfg.Reminders.PollInterval(),
		MissedPrayers: a.cfg.Reminders.MissedPrayers,
	})
	a.logger.Info("reminder dispatcher started", "sender", a.cfg.Reminders.Sender)
	return d.Run(ctx)
}

// SetupEncryption generates the archive key pair.
func (a *SalatApp) SetupEncryption(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

func (a *SalatApp) EncryptionConfigured() bool {
	return a.encryptor.IsConfigured()
}

// Export writes the local history to w, encrypted unless plaintext is set.
func (a *SalatApp) Export(ctx context.Context, w io.Writer, plaintext bool) (int, error) {
	if plaintext {
		return a.service.Export(ctx, w, nil, a.idgen)
	}
	if !a.encryptor.IsConfigured() {
		return 0, fmt.Errorf("encryption keys not set up: run `salat keys init` or pass --plaintext")
	}
	return a.service.Export(ctx, w, a.encryptor, a.idgen)
}

// Import merges an archive from r. An empty passphrase reads plaintext.
func (a *SalatApp) Import(ctx context.Context, r io.Reader, passphrase string) (int, error) {
	if passphrase == "" {
		return a.service.Import(ctx, r, nil)
	}
	dec, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}
	return a.service.Import(ctx, r, dec)
}

// DBPath is the device database file.
func (a *SalatApp) DBPath() string {
	return a.db.Path()
}

// BackupDB snapshots the device database to dest.
func (a *SalatApp) BackupDB(dest string) error {
	return a.db.BackupTo(dest)
}

// Close detaches the session and closes all resources.
func (a *SalatApp) Close() error {
	var firstErr error

	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil

	if a.times != nil {
		a.times.Wait()
	}

	if c, ok := a.cacheKV.(io.Closer); ok && a.cacheKV != salat.KeyValueStore(a.db) {
		if err := c.Close(); err != nil {
			firstErr = fmt.Errorf("closing cache: %w", err)
		}
	}
	if c, ok := a.remote.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing remote: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logger != nil {
		a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status, "elapsed", a.op.Elapsed(a.clock).Round(time.Millisecond))
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
