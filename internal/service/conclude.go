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

const defaultConcludeText = "This matter has been closed."

// Conclude ставит ортогональный терминальный замок поверх статуса: дальше
// ни клиент, ни админ действовать не могут, пока замок не снят Reopen.
// Статус при этом не меняется.
func (s *IssueService) Conclude(ctx context.Context, issueID uint64, adminID, reason string, notifyCustomer bool) (*model.Issue, error) {
	if adminID == "" {
		return nil, errs.New(errs.CodeValidation, "admin id is required")
	}
	text := strings.TrimSpace(reason)
	if text == "" {
		text = defaultConcludeText
	}
	var issue model.Issue
	var msg *model.IssueMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, issueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrIssueNotFound
			}
			return err
		}
		if issue.Concluded {
			return errs.ErrAlreadyConcluded
		}
		now := time.Now()
		res := tx.Model(&model.Issue{}).
			Where("id = ? AND concluded = ?", issueID, false).
			Updates(map[string]interface{}{
				"concluded":        true,
				"concluded_at":     now,
				"concluded_by":     adminID,
				"concluded_reason": text,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrStaleState
		}
		issue.Concluded = true
		issue.ConcludedAt = &now
		issue.ConcludedBy = adminID
		issue.ConcludedReason = text

		var err error
		msg, err = appendMessage(tx, issue.ID, model.MessageSenderSystem, adminID, text, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.produceEvent(ctx, "issue.concluded", &issue)
	if notifyCustomer {
		s.notifyAfterCommit(ctx, "issue_concluded", &issue, msg, false)
	}
	return &issue, nil
}

// Reopen снимает замок: чистит четыре concluded-поля и дописывает системное
// сообщение. Статус к прежнему значению не откатывается.
func (s *IssueService) Reopen(ctx context.Context, issueID uint64, adminID string) (*model.Issue, error) {
	if adminID == "" {
		return nil, errs.New(errs.CodeValidation, "admin id is required")
	}
	var issue model.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, issueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrIssueNotFound
			}
			return err
		}
		if !issue.Concluded {
			return errs.ErrNotConcluded
		}
		res := tx.Model(&model.Issue{}).
			Where("id = ? AND concluded = ?", issueID, true).
			Updates(map[string]interface{}{
				"concluded":        false,
				"concluded_at":     nil,
				"concluded_by":     "",
				"concluded_reason": "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrStaleState
		}
		issue.Concluded = false
		issue.ConcludedAt = nil
		issue.ConcludedBy = ""
		issue.ConcludedReason = ""

		_, err := appendMessage(tx, issue.ID, model.MessageSenderSystem, adminID, "Issue reopened for further review.", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.produceEvent(ctx, "issue.reopened", &issue)
	return &issue, nil
}
