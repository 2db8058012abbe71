// Package engine owns the medicine catalog, the dose log and the caregiver
// alert. Every mutation goes through an Engine method, which serializes it,
// queues the durable write and publishes an Event.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
	"github.com/gmsas95/medremind/internal/metrics"
	"github.com/gmsas95/medremind/internal/scheduler"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

const (
	refreshJobKey      = "refresh"
	snoozeJobPrefix    = "snooze:"
	defaultRefreshSpec = "@every 1m"
)

// Engine is the single writer for reminder state
type Engine struct {
	mu sync.Mutex

	logger      *zap.Logger
	clock       func() time.Time
	loc         *time.Location
	snoozeDelay time.Duration
	threshold   int
	refreshSpec string
	newID       func() string

	medicines *orderedmap.OrderedMap[string, medication.Medicine]
	logs      []medication.LogEntry
	logIndex  map[string]int
	alert     medication.CaregiverAlert

	repo    Repository
	persist *persister
	sched   *scheduler.Scheduler
	events  *Broadcaster
	metrics *metrics.Metrics

	started bool
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLocation sets the timezone that decides calendar days
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithSnoozeDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.snoozeDelay = d
		}
	}
}

func WithMissThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// WithRefreshSchedule sets the cron spec for the background refresh
func WithRefreshSchedule(spec string) Option {
	return func(e *Engine) {
		if spec != "" {
			e.refreshSpec = spec
		}
	}
}

// WithRepository enables durable writes
func WithRepository(repo Repository) Option {
	return func(e *Engine) { e.repo = repo }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIDs replaces the uuid generator
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine with empty state. Call Start to load persisted
// state and begin the background refresh.
func New(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:      logger,
		clock:       time.Now,
		loc:         time.Local,
		snoozeDelay: medication.DefaultSnoozeDelay,
		threshold:   medication.DefaultMissThreshold,
		refreshSpec: defaultRefreshSpec,
		newID:       func() string { return uuid.New().String() },
		medicines:   orderedmap.New[string, medication.Medicine](),
		logIndex:    make(map[string]int),
		events:      NewBroadcaster(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.Default()
	}
	e.sched = scheduler.New(logger.Named("scheduler"), e.clock)
	if e.repo != nil {
		e.persist = newPersister(e.repo, logger.Named("persist"), e.metrics, 256)
	}
	return e
}

// Events returns the engine's broadcaster
func (e *Engine) Events() *Broadcaster {
	return e.events
}

// Scheduler exposes the job queue, mostly for tests driving time by hand
func (e *Engine) Scheduler() *scheduler.Scheduler {
	return e.sched
}

// Location returns the timezone used for day keys
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now returns the engine clock in the engine location
func (e *Engine) Now() time.Time {
	return e.clock().In(e.loc)
}

// SnoozeDelay returns the current snooze duration
func (e *Engine) SnoozeDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snoozeDelay
}

// SetSnoozeDelay changes the delay for future snoozes
func (e *Engine) SetSnoozeDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snoozeDelay = d
}

// SetMissThreshold changes the caregiver threshold for future misses
func (e *Engine) SetMissThreshold(n int) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threshold = n
}

// Load replaces in-memory state with what the repository holds
func (e *Engine) Load(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}

	meds, err := e.repo.LoadMedicines(ctx)
	if err != nil {
		return fmt.Errorf("failed to load medicines: %w", err)
	}
	logs, err := e.repo.LoadLogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load logs: %w", err)
	}
	alert, err := e.repo.LoadAlert(ctx)
	if err != nil {
		return fmt.Errorf("failed to load caregiver alert: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.medicines = orderedmap.New[string, medication.Medicine]()
	for _, m := range meds {
		e.medicines.Set(m.ID, m)
	}
	e.logs = logs
	e.reindexLocked()
	e.alert = alert

	e.logger.Info("Loaded reminder state",
		zap.Int("medicines", len(meds)),
		zap.Int("logs", len(logs)),
		zap.Bool("alert_visible", alert.Visible))
	return nil
}

// Start loads state, runs the first refresh, re-arms snooze timers and
// starts the background scheduler.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.mu.Unlock()

	if err := e.Load(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	for i := range e.logs {
		if e.logs[i].Status == medication.StatusSnoozed && e.logs[i].SnoozeUntil != nil {
			e.armSnoozeLocked(e.logs[i].ID, *e.logs[i].SnoozeUntil)
		}
	}
	e.mu.Unlock()

	e.Refresh()

	if err := e.sched.Every(refreshJobKey, e.refreshSpec, func(time.Time) { e.Refresh() }); err != nil {
		return err
	}
	return e.sched.Start(ctx)
}

// Flush waits for queued durable writes
func (e *Engine) Flush(ctx context.Context) error {
	if e.persist == nil {
		return nil
	}
	return e.persist.flush(ctx)
}

// Close stops the scheduler, drains pending writes and closes event streams
func (e *Engine) Close() error {
	e.sched.Stop()
	if e.persist != nil {
		e.persist.close()
	}
	e.events.Close()
	return nil
}

// Refresh materializes today's reminders and returns expired snoozes to
// Pending. It returns the entries it created.
func (e *Engine) Refresh() []medication.LogEntry {
	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	resumed := e.reconcileSnoozesLocked(now)
	created := e.materializeLocked(now)

	e.metrics.SetPending(len(medication.PendingToday(e.logs, medication.DayKey(now))))
	if len(created) > 0 || resumed > 0 {
		e.logger.Debug("Refreshed reminders",
			zap.Int("created", len(created)),
			zap.Int("resumed", resumed))
	}
	return created
}

func (e *Engine) materializeLocked(now time.Time) []medication.LogEntry {
	created := medication.MaterializeToday(e.medicineSliceLocked(), e.logs, now, e.newID)
	if len(created) == 0 {
		return nil
	}

	for _, entry := range created {
		e.logIndex[entry.ID] = len(e.logs)
		e.logs = append(e.logs, entry)
		e.publishLocked(Event{Type: EventLogCreated, MedicineID: entry.MedicineID, LogID: entry.ID, Log: &entry})
	}
	e.saveLogsLocked(created...)
	e.metrics.RecordMaterialized(len(created))
	return created
}

func (e *Engine) reconcileSnoozesLocked(now time.Time) int {
	resumed := 0
	for i := range e.logs {
		if medication.ResumeIfDue(&e.logs[i], now) {
			e.sched.Cancel(snoozeJobPrefix + e.logs[i].ID)
			e.afterLogChangeLocked(&e.logs[i])
			resumed++
		}
	}
	return resumed
}

func (e *Engine) armSnoozeLocked(logID string, until time.Time) {
	e.sched.Schedule(snoozeJobPrefix+logID, until, func(time.Time) {
		e.resumeSnoozed(logID)
	})
}

func (e *Engine) resumeSnoozed(logID string) {
	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.logIndex[logID]
	if !ok {
		return
	}
	if medication.ResumeIfDue(&e.logs[idx], now) {
		e.afterLogChangeLocked(&e.logs[idx])
		e.metrics.SetPending(len(medication.PendingToday(e.logs, medication.DayKey(now))))
	}
}

func (e *Engine) medicineSliceLocked() []medication.Medicine {
	out := make([]medication.Medicine, 0, e.medicines.Len())
	for pair := e.medicines.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (e *Engine) reindexLocked() {
	e.logIndex = make(map[string]int, len(e.logs))
	for i := range e.logs {
		e.logIndex[e.logs[i].ID] = i
	}
}

func (e *Engine) afterLogChangeLocked(entry *medication.LogEntry) {
	e.saveLogsLocked(*entry)
	snapshot := *entry
	e.publishLocked(Event{Type: EventLogUpdated, MedicineID: entry.MedicineID, LogID: entry.ID, Log: &snapshot})
}

func (e *Engine) saveLogsLocked(entries ...medication.LogEntry) {
	if e.persist == nil {
		return
	}
	batch := append([]medication.LogEntry(nil), entries...)
	e.persist.enqueue("save_logs", func(ctx context.Context, repo Repository) error {
		return repo.SaveLogs(ctx, batch...)
	})
}

func (e *Engine) publishLocked(ev Event) {
	ev.At = e.clock()
	e.events.Publish(ev)
}
