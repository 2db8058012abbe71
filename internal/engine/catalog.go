package engine

import (
	"context"
	"strings"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
	"go.uber.org/zap"
)

func cleanFields(f medication.Fields) medication.Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Dosage = strings.TrimSpace(f.Dosage)
	f.Recurrence = f.Recurrence.Normalize()
	return f
}

// CreateMedicine validates and stores a new medicine, then materializes its
// reminder for today if it is due.
func (e *Engine) CreateMedicine(f medication.Fields) (medication.Medicine, error) {
	f = cleanFields(f)
	if err := f.Validate(); err != nil {
		e.logger.Warn("Rejected medicine", zap.String("name", f.Name), zap.Error(err))
		return medication.Medicine{}, err
	}

	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	m := medication.Medicine{ID: e.newID(), CreatedAt: now}
	f.Apply(&m)
	e.medicines.Set(m.ID, m)

	e.saveMedicineLocked(m)
	e.publishLocked(Event{Type: EventMedicineCreated, MedicineID: m.ID, Medicine: &m})
	e.logger.Info("Medicine created", zap.String("medicine_id", m.ID), zap.String("name", m.Name))

	e.materializeLocked(now)
	return m, nil
}

// UpdateMedicine replaces the editable fields of a medicine. Existing log
// entries keep the name and dosage they were created with.
func (e *Engine) UpdateMedicine(id string, f medication.Fields) (medication.Medicine, error) {
	f = cleanFields(f)
	if err := f.Validate(); err != nil {
		e.logger.Warn("Rejected medicine update", zap.String("medicine_id", id), zap.Error(err))
		return medication.Medicine{}, err
	}

	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.medicines.Get(id)
	if !ok {
		return medication.Medicine{}, apperrors.NotFound("medicine", id)
	}
	f.Apply(&m)
	e.medicines.Set(id, m)

	e.saveMedicineLocked(m)
	e.publishLocked(Event{Type: EventMedicineUpdated, MedicineID: m.ID, Medicine: &m})

	e.materializeLocked(now)
	return m, nil
}

// DeleteMedicine removes a medicine with all of its log entries and cancels
// any snooze timers those entries still hold.
func (e *Engine) DeleteMedicine(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.medicines.Delete(id); !ok {
		return apperrors.NotFound("medicine", id)
	}

	kept := e.logs[:0]
	removed := 0
	for _, entry := range e.logs {
		if entry.MedicineID == id {
			e.sched.Cancel(snoozeJobPrefix + entry.ID)
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	e.logs = kept
	e.reindexLocked()

	if e.persist != nil {
		e.persist.enqueue("delete_medicine", func(ctx context.Context, repo Repository) error {
			return repo.DeleteMedicine(ctx, id)
		})
	}
	e.publishLocked(Event{Type: EventMedicineDeleted, MedicineID: id})
	e.logger.Info("Medicine deleted", zap.String("medicine_id", id), zap.Int("logs_removed", removed))
	return nil
}

// GetMedicine returns one catalog entry
func (e *Engine) GetMedicine(id string) (medication.Medicine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.medicines.Get(id)
	if !ok {
		return medication.Medicine{}, apperrors.NotFound("medicine", id)
	}
	return m, nil
}

// ListMedicines returns the catalog in insertion order
func (e *Engine) ListMedicines() []medication.Medicine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.medicineSliceLocked()
}

func (e *Engine) saveMedicineLocked(m medication.Medicine) {
	if e.persist == nil {
		return
	}
	e.persist.enqueue("save_medicine", func(ctx context.Context, repo Repository) error {
		return repo.SaveMedicine(ctx, m)
	})
}
