package model

import "time"

type IssueStatus string

const (
	IssueStatusAwaitingReview  IssueStatus = "AWAITING_REVIEW"
	IssueStatusInfoRequested   IssueStatus = "INFO_REQUESTED"
	IssueStatusApprovedReprint IssueStatus = "APPROVED_REPRINT"
	IssueStatusApprovedRefund  IssueStatus = "APPROVED_REFUND"
	IssueStatusRejected        IssueStatus = "REJECTED"
)

// ReviewableStatuses — статусы, из которых принимается действие ревью.
var ReviewableStatuses = []IssueStatus{IssueStatusAwaitingReview, IssueStatusInfoRequested}

// IsTerminal сообщает, завершён ли нормальный поток рассмотрения.
func (s IssueStatus) IsTerminal() bool {
	switch s {
	case IssueStatusApprovedReprint, IssueStatusApprovedRefund, IssueStatusRejected:
		return true
	}
	return false
}

type ResolvedType string

const (
	ResolvedTypeReprint       ResolvedType = "REPRINT"
	ResolvedTypeFullRefund    ResolvedType = "FULL_REFUND"
	ResolvedTypePartialRefund ResolvedType = "PARTIAL_REFUND"
)

type CarrierFault string

const (
	CarrierFaultUnknown CarrierFault = "UNKNOWN"
	CarrierFaultYes     CarrierFault = "CARRIER_FAULT"
	CarrierFaultNo      CarrierFault = "NOT_CARRIER_FAULT"
)

func ValidCarrierFault(v CarrierFault) bool {
	switch v {
	case CarrierFaultUnknown, CarrierFaultYes, CarrierFaultNo:
		return true
	}
	return false
}

type IssueReason string

const (
	IssueReasonDamagedInTransit IssueReason = "DAMAGED_IN_TRANSIT"
	IssueReasonQualityIssue     IssueReason = "QUALITY_ISSUE"
	IssueReasonWrongItem        IssueReason = "WRONG_ITEM"
	IssueReasonPrintingError    IssueReason = "PRINTING_ERROR"
	IssueReasonOther            IssueReason = "OTHER"
)

func ValidIssueReason(v IssueReason) bool {
	switch v {
	case IssueReasonDamagedInTransit, IssueReasonQualityIssue, IssueReasonWrongItem,
		IssueReasonPrintingError, IssueReasonOther:
		return true
	}
	return false
}

type MessageSender string

const (
	MessageSenderCustomer MessageSender = "CUSTOMER"
	MessageSenderAdmin    MessageSender = "ADMIN"
	MessageSenderSystem   MessageSender = "SYSTEM"
)

type Issue struct {
	ID           uint64       `gorm:"primaryKey" json:"id"`
	OrderItemID  uint64       `gorm:"index;not null" json:"order_item_id"`
	CustomerID   string       `gorm:"index;not null" json:"customer_id"`
	Status       IssueStatus  `gorm:"type:varchar(32);index;not null" json:"status"`
	Reason       IssueReason  `gorm:"type:varchar(32);not null" json:"reason"`
	CarrierFault CarrierFault `gorm:"type:varchar(32);not null;default:UNKNOWN" json:"carrier_fault"`

	ResolvedType    *ResolvedType `gorm:"type:varchar(32)" json:"resolved_type,omitempty"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectionFinal  bool          `json:"rejection_final"`

	Concluded       bool       `gorm:"not null;default:false;index" json:"concluded"`
	ConcludedAt     *time.Time `json:"concluded_at,omitempty"`
	ConcludedBy     string     `gorm:"type:varchar(64)" json:"concluded_by,omitempty"`
	ConcludedReason string     `gorm:"type:text" json:"concluded_reason,omitempty"`

	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Open: по одному открытому репорту на позицию заказа (проверка intake).
func (i *Issue) Open() bool {
	return !i.Concluded && !i.Status.IsTerminal()
}

// IssueMessage — append-only запись треда. После создания не меняется,
// кроме отметки об успешной отправке письма (второй независимый коммит).
// Seq монотонен в рамках issue и задаёт порядок треда.
type IssueMessage struct {
	ID        uint64        `gorm:"primaryKey" json:"id"`
	IssueID   uint64        `gorm:"uniqueIndex:idx_issue_messages_issue_seq;not null" json:"issue_id"`
	Seq       int           `gorm:"uniqueIndex:idx_issue_messages_issue_seq;not null" json:"seq"`
	Sender    MessageSender `gorm:"type:varchar(16);not null" json:"sender"`
	SenderID  string        `gorm:"type:varchar(64)" json:"sender_id,omitempty"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	ImageURLs []string      `gorm:"serializer:json" json:"image_urls,omitempty"`

	EmailSent   bool       `gorm:"not null;default:false" json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Fulfilled: репорт возможен только после отгрузки заказа.
func (s OrderStatus) Fulfilled() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered
}

// Order и OrderItem принадлежат order-service; здесь только чтение
// для проверок intake (владелец, статус заказа).
type Order struct {
	ID         uint64      `gorm:"primaryKey" json:"id"`
	CustomerID string      `gorm:"index;not null" json:"customer_id"`
	Status     OrderStatus `gorm:"type:varchar(32);index;not null" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

type OrderItem struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	OrderID     uint64 `gorm:"index;not null" json:"order_id"`
	ProductName string `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int    `json:"quantity"`
}
