package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/printops/issue-service/internal/errs"
	"github.com/printops/issue-service/internal/model"
	"gorm.io/gorm"
)

// ReportInput — заявка клиента на проблему с доставленной позицией.
type ReportInput struct {
	OrderItemID uint64
	CustomerID  string
	Reason      model.IssueReason
	Notes       string
	ImageURLs   []string
}

// Report создаёт репорт по позиции заказа. Проверки идут строго по порядку:
// позиция существует, заказ принадлежит клиенту, заказ отгружен/доставлен,
// нет другого открытого репорта. Письмо на intake не отправляется —
// уведомления шлёт только ревью.
func (s *IssueService) Report(ctx context.Context, in ReportInput) (*model.Issue, error) {
	if in.CustomerID == "" {
		return nil, errs.New(errs.CodeValidation, "customer id is required")
	}
	if !model.ValidIssueReason(in.Reason) {
		return nil, errs.New(errs.CodeValidation, "unknown reason %q", string(in.Reason))
	}

	var issue *model.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.OrderItem
		if err := tx.First(&item, in.OrderItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrOrderItemNotFound
			}
			return err
		}
		var order model.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrOrderNotFound
			}
			return err
		}
		if order.CustomerID != in.CustomerID {
			return errs.ErrNotOrderOwner
		}
		if !order.Status.Fulfilled() {
			return errs.ErrOrderNotFulfilled
		}
		var pending int64
		if err := tx.Model(&model.Issue{}).
			Where("order_item_id = ? AND concluded = ? AND status IN ?",
				in.OrderItemID, false, model.ReviewableStatuses).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return errs.ErrIssuePending
		}

		issue = &model.Issue{
			OrderItemID:  in.OrderItemID,
			CustomerID:   in.CustomerID,
			Status:       model.IssueStatusAwaitingReview,
			Reason:       in.Reason,
			CarrierFault: model.CarrierFaultUnknown,
		}
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		content := strings.TrimSpace(in.Notes)
		if content == "" {
			content = fmt.Sprintf("Reported issue: %s", string(in.Reason))
		}
		_, err := appendMessage(tx, issue.ID, model.MessageSenderCustomer, in.CustomerID, content, in.ImageURLs)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.produceEvent(ctx, "issue.reported", issue)
	return issue, nil
}
