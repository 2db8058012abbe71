package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gmsas95/medremind/internal/config"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/gmsas95/medremind/internal/metrics"
	"github.com/gmsas95/medremind/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	mu        sync.Mutex
	medicines map[string]medication.Medicine
	logs      map[string]medication.LogEntry
	alert     medication.CaregiverAlert
	failLogs  bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		medicines: make(map[string]medication.Medicine),
		logs:      make(map[string]medication.LogEntry),
	}
}

func (r *memRepo) LoadMedicines(context.Context) ([]medication.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []medication.Medicine
	for _, m := range r.medicines {
		out = append(out, m)
	}
	return out, nil
}

func (r *memRepo) LoadLogs(context.Context) ([]medication.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []medication.LogEntry
	for _, l := range r.logs {
		out = append(out, l)
	}
	return out, nil
}

func (r *memRepo) LoadAlert(context.Context) (medication.CaregiverAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alert, nil
}

func (r *memRepo) SaveMedicine(_ context.Context, m medication.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medicines[m.ID] = m
	return nil
}

func (r *memRepo) DeleteMedicine(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.medicines, id)
	for k, l := range r.logs {
		if l.MedicineID == id {
			delete(r.logs, k)
		}
	}
	return nil
}

func (r *memRepo) SaveLogs(_ context.Context, entries ...medication.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLogs {
		return errors.New("disk full")
	}
	for _, l := range entries {
		r.logs[l.ID] = l
	}
	return nil
}

func (r *memRepo) SaveAlert(_ context.Context, alert medication.CaregiverAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alert = alert
	return nil
}

func TestPersist_WritesAfterMutation(t *testing.T) {
	repo := newMemRepo()
	e, _ := newTestEngine(t, WithRepository(repo), WithMissThreshold(1))

	m, err := e.CreateMedicine(aspirinFields())
	require.NoError(t, err)
	entry := onlyPending(t, e)
	_, err = e.Miss(entry.ID, medication.ReasonLater)
	require.NoError(t, err)

	require.NoError(t, e.Flush(context.Background()))

	repo.mu.Lock()
	assert.Contains(t, repo.medicines, m.ID)
	assert.Equal(t, medication.StatusMissed, repo.logs[entry.ID].Status)
	assert.True(t, repo.alert.Visible)
	repo.mu.Unlock()

	require.NoError(t, e.DeleteMedicine(m.ID))
	require.NoError(t, e.Flush(context.Background()))

	repo.mu.Lock()
	assert.Empty(t, repo.medicines)
	assert.Empty(t, repo.logs)
	repo.mu.Unlock()
}

func TestPersist_FailuresAreCountedNotReturned(t *testing.T) {
	repo := newMemRepo()
	repo.failLogs = true
	m := metrics.New()
	e, _ := newTestEngine(t, WithRepository(repo), WithMetrics(m))

	_, err := e.CreateMedicine(aspirinFields())
	require.NoError(t, err)
	_, err = e.Take(onlyPending(t, e).ID)
	require.NoError(t, err)

	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, int64(2), m.Snapshot().PersistFailures)
}

func TestPersist_CloseDrains(t *testing.T) {
	repo := newMemRepo()
	e := New(zap.NewNop(), WithRepository(repo), WithMetrics(metrics.New()), WithLocation(time.UTC))

	for i := 0; i < 20; i++ {
		_, err := e.CreateMedicine(aspirinFields())
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.medicines, 20)
	assert.Len(t, repo.logs, 20)

	// writes after close are dropped, not panics
	_, err := e.CreateMedicine(aspirinFields())
	assert.NoError(t, err)
}

func TestRestartFromStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		DataDir:    dir,
		SQLitePath: filepath.Join(dir, "medremind.db"),
		BadgerPath: filepath.Join(dir, "badger"),
	}}

	st, err := store.New(cfg)
	require.NoError(t, err)

	clock := &fakeClock{now: start}
	opts := []Option{WithClock(clock.Now), WithLocation(time.UTC), WithMetrics(metrics.New()), WithRepository(st)}

	first := New(zap.NewNop(), opts...)
	require.NoError(t, first.Start(context.Background()))
	m, err := first.CreateMedicine(aspirinFields())
	require.NoError(t, err)
	entry := onlyPending(t, first)
	_, err = first.Snooze(entry.ID)
	require.NoError(t, err)
	require.NoError(t, first.Close())
	require.NoError(t, st.Close())

	st, err = store.New(cfg)
	require.NoError(t, err)
	defer st.Close()

	second := New(zap.NewNop(), append(opts[:3:3], WithRepository(st))...)
	require.NoError(t, second.Start(context.Background()))
	defer second.Close()

	meds := second.ListMedicines()
	require.Len(t, meds, 1)
	assert.Equal(t, m.ID, meds[0].ID)

	// no duplicate for the same day after reload
	assert.Len(t, second.Logs(), 1)

	restored, err := second.GetLog(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, medication.StatusSnoozed, restored.Status)
	_, armed := second.Scheduler().DueAt(snoozeJobPrefix + entry.ID)
	assert.True(t, armed)
}

// stallRepo blocks every medicine write until release is closed
type stallRepo struct {
	*memRepo
	release chan struct{}
}

func (r *stallRepo) SaveMedicine(ctx context.Context, m medication.Medicine) error {
	<-r.release
	return r.memRepo.SaveMedicine(ctx, m)
}

func TestPersist_StalledStoreDoesNotBlockMutations(t *testing.T) {
	repo := &stallRepo{memRepo: newMemRepo(), release: make(chan struct{})}
	m := metrics.New()
	e, _ := newTestEngine(t, WithRepository(repo), WithMetrics(m))
	defer close(repo.release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			_, err := e.CreateMedicine(aspirinFields())
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutations blocked behind a stalled store")
	}

	read := make(chan struct{})
	go func() {
		e.CaregiverAlert()
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("reads blocked behind a stalled store")
	}

	assert.Len(t, e.ListMedicines(), 300)
	assert.Greater(t, m.Snapshot().PersistFailures, int64(0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Flush(ctx), context.DeadlineExceeded)
}
