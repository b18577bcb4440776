package services

import (
	"context"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

type OrphanFinder interface {
	Orphans(ctx context.Context) ([]model.IntegrityIssue, error)
}

// IntegrityService reports rows whose parent rows are gone.
type IntegrityService struct {
	services   OrphanFinder
	appliances OrphanFinder
}

func NewIntegrityService(services, appliances OrphanFinder) *IntegrityService {
	return &IntegrityService{services: services, appliances: appliances}
}

func (s *IntegrityService) Report(ctx context.Context) (*model.IntegrityReport, error) {
	services, err := s.services.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	appliances, err := s.appliances.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	report := &model.IntegrityReport{
		CheckedAt:          time.Now().UTC(),
		OrphanedServices:   nonNil(services),
		OrphanedAppliances: nonNil(appliances),
	}
	if !report.OK() {
		logger.Warn("integrity check found orphans",
			"services", len(report.OrphanedServices),
			"appliances", len(report.OrphanedAppliances))
	}
	return report, nil
}

func nonNil(issues []model.IntegrityIssue) []model.IntegrityIssue {
	if issues == nil {
		return []model.IntegrityIssue{}
	}
	return issues
}
