package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/printops/issue-service/internal/errs"
	"github.com/printops/issue-service/internal/model"
	"gorm.io/gorm"
)

// ReviewAction — решение администратора по репорту.
type ReviewAction string

const (
	ActionApproveReprint ReviewAction = "APPROVE_REPRINT"
	ActionApproveRefund  ReviewAction = "APPROVE_REFUND"
	ActionRequestInfo    ReviewAction = "REQUEST_INFO"
	ActionReject         ReviewAction = "REJECT"
)

type transition struct {
	requiresMessage bool
	newStatus       model.IssueStatus
	resolvedType    *model.ResolvedType
	defaultText     string
	notifyKind      string
}

func rt(v model.ResolvedType) *model.ResolvedType { return &v }

// transitions — статическая таблица action → переход. Неизвестный action
// не проходит lookup и отклоняется до каких-либо записей.
var transitions = map[ReviewAction]transition{
	ActionApproveReprint: {
		newStatus:    model.IssueStatusApprovedReprint,
		resolvedType: rt(model.ResolvedTypeReprint),
		defaultText:  "Your report has been approved. A replacement will be reprinted and shipped to you.",
		notifyKind:   "issue_approved_reprint",
	},
	ActionApproveRefund: {
		newStatus:    model.IssueStatusApprovedRefund,
		resolvedType: rt(model.ResolvedTypeFullRefund),
		defaultText:  "Your report has been approved. A full refund will be issued to your original payment method.",
		notifyKind:   "issue_approved_refund",
	},
	ActionRequestInfo: {
		requiresMessage: true,
		newStatus:       model.IssueStatusInfoRequested,
		notifyKind:      "issue_info_requested",
	},
	ActionReject: {
		requiresMessage: true,
		newStatus:       model.IssueStatusRejected,
		notifyKind:      "issue_rejected",
	},
}

// ReviewInput — действие администратора плюс сопроводительный текст.
// IsFinalRejection имеет смысл только для REJECT.
type ReviewInput struct {
	IssueID          uint64
	AdminID          string
	Action           ReviewAction
	Message          string
	IsFinalRejection bool
}

// Review применяет переход из таблицы transitions. Переход, его поля и
// admin-сообщение коммитятся одной транзакцией; статус меняется условным
// UPDATE по ранее прочитанному пред-состоянию, несовпадение — ErrStaleState.
// Письмо клиенту уходит строго после коммита.
func (s *IssueService) Review(ctx context.Context, in ReviewInput) (*model.Issue, error) {
	tr, ok := transitions[in.Action]
	if !ok {
		return nil, errs.New(errs.CodeValidation, "unknown action %q", string(in.Action))
	}
	if in.AdminID == "" {
		return nil, errs.New(errs.CodeValidation, "admin id is required")
	}
	text := strings.TrimSpace(in.Message)
	if tr.requiresMessage && text == "" {
		return nil, errs.New(errs.CodeValidation, "action %s requires a message", string(in.Action))
	}
	if text == "" {
		text = tr.defaultText
	}

	var issue model.Issue
	var msg *model.IssueMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, in.IssueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrIssueNotFound
			}
			return err
		}
		if issue.Concluded {
			return errs.ErrIssueConcluded
		}
		if !reviewable(issue.Status) {
			return errs.ErrNotReviewable
		}

		now := time.Now()
		changes := map[string]interface{}{
			"status":      tr.newStatus,
			"reviewed_at": now,
		}
		if tr.resolvedType != nil {
			changes["resolved_type"] = *tr.resolvedType
		}
		if in.Action == ActionReject {
			changes["rejection_reason"] = text
			changes["rejection_final"] = in.IsFinalRejection
		}
		// Условный UPDATE: переход применяется только если статус всё ещё
		// ревьюируемый и репорт не закрыт. Ноль строк при живой записи
		// значит гонку двух ревью — вторая получает STALE_STATE.
		res := tx.Model(&model.Issue{}).
			Where("id = ? AND concluded = ? AND status IN ?", in.IssueID, false, model.ReviewableStatuses).
			Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrStaleState
		}

		issue.Status = tr.newStatus
		issue.ReviewedAt = &now
		if tr.resolvedType != nil {
			issue.ResolvedType = tr.resolvedType
		}
		if in.Action == ActionReject {
			issue.RejectionReason = text
			issue.RejectionFinal = in.IsFinalRejection
		}

		var err error
		msg, err = appendMessage(tx, issue.ID, model.MessageSenderAdmin, in.AdminID, text, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.produceEvent(ctx, "issue.reviewed", &issue)
	canAppeal := in.Action == ActionReject && !in.IsFinalRejection
	s.notifyAfterCommit(ctx, tr.notifyKind, &issue, msg, canAppeal)
	return &issue, nil
}

// AddCustomerMessage дописывает ответ клиента в тред. Если админ запрашивал
// информацию, репорт возвращается в очередь на ревью.
func (s *IssueService) AddCustomerMessage(ctx context.Context, issueID uint64, customerID, content string, imageURLs []string) (*model.Issue, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, errs.New(errs.CodeValidation, "message content is required")
	}
	if customerID == "" {
		return nil, errs.New(errs.CodeValidation, "customer id is required")
	}
	var issue model.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, issueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrIssueNotFound
			}
			return err
		}
		if issue.CustomerID != customerID {
			return errs.New(errs.CodeForbidden, "issue belongs to another customer")
		}
		if issue.Concluded {
			return errs.ErrIssueConcluded
		}
		if _, err := appendMessage(tx, issue.ID, model.MessageSenderCustomer, customerID, text, imageURLs); err != nil {
			return err
		}
		if issue.Status != model.IssueStatusInfoRequested {
			return nil
		}
		res := tx.Model(&model.Issue{}).
			Where("id = ? AND concluded = ? AND status = ?", issueID, false, model.IssueStatusInfoRequested).
			Update("status", model.IssueStatusAwaitingReview)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrStaleState
		}
		issue.Status = model.IssueStatusAwaitingReview
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.produceEvent(ctx, "issue.customer_replied", &issue)
	return &issue, nil
}

func reviewable(status model.IssueStatus) bool {
	for _, s := range model.ReviewableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
