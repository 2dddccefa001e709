package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/printops/issue-service/internal/errs"
	"github.com/printops/issue-service/internal/kafka"
	"github.com/printops/issue-service/internal/model"
	"github.com/printops/issue-service/internal/notify"
	"gorm.io/gorm"
)

// IssueServicer — интерфейс для Deps хендлеров (Dependency Inversion).
type IssueServicer interface {
	Report(ctx context.Context, in ReportInput) (*model.Issue, error)
	Review(ctx context.Context, in ReviewInput) (*model.Issue, error)
	AddCustomerMessage(ctx context.Context, issueID uint64, customerID, content string, imageURLs []string) (*model.Issue, error)
	Conclude(ctx context.Context, issueID uint64, adminID, reason string, notifyCustomer bool) (*model.Issue, error)
	Reopen(ctx context.Context, issueID uint64, adminID string) (*model.Issue, error)
	SetCarrierFault(ctx context.Context, issueID uint64, value model.CarrierFault) (*model.Issue, error)
	GetWithMessages(ctx context.Context, issueID uint64) (*model.Issue, []model.IssueMessage, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Issue, int64, error)
}

type IssueService struct {
	db       *gorm.DB
	notifier notify.Notifier
	producer kafka.IssueEventProducer
}

func NewIssueService(db *gorm.DB, notifier notify.Notifier, producer kafka.IssueEventProducer) *IssueService {
	return &IssueService{db: db, notifier: notifier, producer: producer}
}

func (s *IssueService) GetByID(ctx context.Context, id uint64) (*model.Issue, error) {
	var issue model.Issue
	if err := s.db.WithContext(ctx).First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrIssueNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// GetWithMessages возвращает репорт и его тред в порядке seq.
func (s *IssueService) GetWithMessages(ctx context.Context, id uint64) (*model.Issue, []model.IssueMessage, error) {
	issue, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var messages []model.IssueMessage
	if err := s.db.WithContext(ctx).
		Where("issue_id = ?", id).
		Order("seq ASC").
		Find(&messages).Error; err != nil {
		return nil, nil, err
	}
	return issue, messages, nil
}

func (s *IssueService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Issue, int64, error) {
	var items []model.Issue
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Issue{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	// Count total before pagination
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// appendMessage добавляет запись в тред внутри текущей транзакции.
// Seq выдаётся монотонно на issue; уникальный индекс (issue_id, seq)
// ловит одновременные дописывания.
func appendMessage(tx *gorm.DB, issueID uint64, sender model.MessageSender, senderID, content string, imageURLs []string) (*model.IssueMessage, error) {
	var maxSeq int
	if err := tx.Model(&model.IssueMessage{}).
		Where("issue_id = ?", issueID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return nil, err
	}
	msg := &model.IssueMessage{
		IssueID:   issueID,
		Seq:       maxSeq + 1,
		Sender:    sender,
		SenderID:  senderID,
		Content:   content,
		ImageURLs: imageURLs,
	}
	if err := tx.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// productName читает название товара спорной позиции (для текста письма).
func (s *IssueService) productName(ctx context.Context, orderItemID uint64) string {
	var item model.OrderItem
	if err := s.db.WithContext(ctx).First(&item, orderItemID).Error; err != nil {
		return ""
	}
	return item.ProductName
}

// notifyAfterCommit — best-effort письмо после коммита перехода. Отказ
// notifier-а логируется и не влияет на результат операции; только при
// успехе вторым независимым коммитом ставится отметка email_sent.
func (s *IssueService) notifyAfterCommit(ctx context.Context, kind string, issue *model.Issue, msg *model.IssueMessage, canAppeal bool) {
	if s.notifier == nil || msg == nil {
		return
	}
	sent := s.notifier.Send(ctx, notify.Notification{
		Kind:        kind,
		Recipient:   issue.CustomerID,
		IssueID:     issue.ID,
		ProductName: s.productName(ctx, issue.OrderItemID),
		Body:        msg.Content,
		CanAppeal:   canAppeal,
	})
	if !sent {
		return
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&model.IssueMessage{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{"email_sent": true, "email_sent_at": now}).Error; err != nil {
		log.Printf("issue: mark email sent for message %d: %v", msg.ID, err)
	}
}

// produceEvent — best-effort событие в Kafka (downstream accounting/reporting).
func (s *IssueService) produceEvent(ctx context.Context, event string, issue *model.Issue) {
	if s.producer == nil {
		return
	}
	payload := map[string]interface{}{
		"issue_id":      int64(issue.ID),
		"order_item_id": int64(issue.OrderItemID),
		"customer_id":   issue.CustomerID,
		"status":        string(issue.Status),
		"carrier_fault": string(issue.CarrierFault),
		"concluded":     issue.Concluded,
	}
	if issue.ResolvedType != nil {
		payload["resolved_type"] = string(*issue.ResolvedType)
	}
	s.producer.ProduceIssueEvent(ctx, event, payload)
}
