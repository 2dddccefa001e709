package service

import (
	"context"

	"github.com/printops/issue-service/internal/errs"
	"github.com/printops/issue-service/internal/model"
)

// SetCarrierFault проставляет атрибуцию вины перевозчика. Это независимый
// бухгалтерский факт: статус и замок conclude его не ограничивают.
func (s *IssueService) SetCarrierFault(ctx context.Context, issueID uint64, value model.CarrierFault) (*model.Issue, error) {
	if !model.ValidCarrierFault(value) {
		return nil, errs.New(errs.CodeValidation, "unknown carrier fault value %q", string(value))
	}
	issue, err := s.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(issue).
		Update("carrier_fault", value).Error; err != nil {
		return nil, err
	}
	issue.CarrierFault = value
	s.produceEvent(ctx, "issue.carrier_fault_set", issue)
	return issue, nil
}
