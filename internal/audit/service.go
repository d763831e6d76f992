package audit

import (
	"log/slog"

	"github.com/eslam-almahdy/RSS-1.0/internal"
)

// Service exposes trail reads with access control. Writes do not go through
// here: mutating services append to the ledger inside their own
// transactions.
type Service struct {
	ledger Ledger
	logger *slog.Logger
}

func NewService(ledger Ledger, logger *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		logger: logger,
	}
}

// GetTrail returns audit entries newest-first. Manager-only.
func (s *Service) GetTrail(actor internal.Actor, filter TrailFilter) ([]*Entry, error) {
	if !actor.IsManager() {
		s.logger.Warn("audit trail access denied",
			"actor", actor.Username,
			"role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}

	entries, err := s.ledger.Trail(filter)
	if err != nil {
		s.logger.Error("failed to read audit trail", "error", err)
		return nil, internal.NewInternalError("failed to read audit trail", err)
	}
	return entries, nil
}
