package api

import (
	"time"

	"github.com/gmsas95/medremind/internal/medication"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
		"pending":   len(s.engine.ListPendingToday()),
	})
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(s.metrics.Snapshot())
}

// ==================== Medicines ====================

func (s *Server) handleListMedicines(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.engine.ListMedicines()))
}

func (s *Server) handleGetMedicine(c *fiber.Ctx) error {
	m, err := s.engine.GetMedicine(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

func (s *Server) handleCreateMedicine(c *fiber.Ctx) error {
	f, err := s.medicineFields(c)
	if err != nil {
		return respondError(c, err)
	}
	m, err := s.engine.CreateMedicine(f)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) handleUpdateMedicine(c *fiber.Ctx) error {
	f, err := s.medicineFields(c)
	if err != nil {
		return respondError(c, err)
	}
	m, err := s.engine.UpdateMedicine(c.Params("id"), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

func (s *Server) handleDeleteMedicine(c *fiber.Ctx) error {
	if err := s.engine.DeleteMedicine(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMissedCount(c *fiber.Ctx) error {
	id := c.Params("id")
	n, err := s.engine.MissedCount(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(MissedCountResponse{MedicineID: id, MissedCount: n})
}

func (s *Server) medicineFields(c *fiber.Ctx) (medication.Fields, error) {
	var req MedicineRequest
	if err := s.bind(c, &req); err != nil {
		return medication.Fields{}, err
	}
	return req.Fields(s.engine.Location())
}

// ==================== Reminders ====================

func (s *Server) handlePendingToday(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.engine.ListPendingToday()))
}

func (s *Server) handleToday(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.engine.ListToday()))
}

func (s *Server) handleTake(c *fiber.Ctx) error {
	entry, err := s.engine.Take(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

func (s *Server) handleSnooze(c *fiber.Ctx) error {
	entry, err := s.engine.Snooze(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

func (s *Server) handleMiss(c *fiber.Ctx) error {
	var req MissRequest
	if len(c.Body()) > 0 {
		if err := s.bind(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	entry, err := s.engine.Miss(c.Params("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.engine.ListHistory()))
}

func (s *Server) handleMissedHistory(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.engine.MissedHistory()))
}

// ==================== Adherence ====================

func (s *Server) handleAdherence(c *fiber.Ctx) error {
	return c.JSON(s.engine.BuildReport())
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	misses := s.engine.Summary()
	lines := make([]string, 0, len(misses))
	for _, m := range misses {
		lines = append(lines, m.Line())
	}
	return c.JSON(SummaryResponse{Lines: lines, Misses: nonNil(misses)})
}

func (s *Server) handleAlert(c *fiber.Ctx) error {
	return c.JSON(s.engine.CaregiverAlert())
}

func (s *Server) handleDismissAlert(c *fiber.Ctx) error {
	return c.JSON(s.engine.DismissCaregiverAlert())
}

// nonNil keeps empty collections encoding as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
