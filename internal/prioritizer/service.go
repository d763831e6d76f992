package prioritizer

import (
	"log/slog"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
)

// Service runs the priority analyses over the actor's visible slice of the
// register. It owns no storage; listings go through the risk store so
// department isolation is applied exactly once.
type Service struct {
	risks  *risk.Service
	logger *slog.Logger
}

func NewService(risks *risk.Service, logger *slog.Logger) *Service {
	return &Service{risks: risks, logger: logger}
}

func (s *Service) Prioritize(actor internal.Actor, filter risk.ListFilter) ([]Prioritized, error) {
	risks, err := s.risks.List(actor, filter)
	if err != nil {
		return nil, err
	}
	return Prioritize(risks, time.Now()), nil
}

func (s *Service) Categorize(actor internal.Actor, filter risk.ListFilter) (map[string][]Prioritized, error) {
	risks, err := s.risks.List(actor, filter)
	if err != nil {
		return nil, err
	}
	return Categorize(risks, time.Now()), nil
}
