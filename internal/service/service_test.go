package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/printops/issue-service/internal/model"
	"github.com/printops/issue-service/internal/notify"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeNotifier struct {
	sent []notify.Notification
	ok   bool
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) bool {
	f.sent = append(f.sent, n)
	return f.ok
}

type fakeProducer struct {
	events []string
}

func (f *fakeProducer) ProduceIssueEvent(_ context.Context, event string, _ map[string]interface{}) {
	f.events = append(f.events, event)
}

type testEnv struct {
	svc      *IssueService
	db       *gorm.DB
	notifier *fakeNotifier
	producer *fakeProducer

	// доставленный заказ клиента cust-1
	deliveredItem uint64
	// второй item того же заказа (для независимых репортов)
	deliveredItem2 uint64
	// item неотгруженного заказа cust-1
	pendingItem uint64
	// item доставленного заказа другого клиента
	foreignItem uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.Order{}, &model.OrderItem{}, &model.Issue{}, &model.IssueMessage{},
	))

	delivered := &model.Order{CustomerID: "cust-1", Status: model.OrderStatusDelivered}
	pending := &model.Order{CustomerID: "cust-1", Status: model.OrderStatusPaid}
	foreign := &model.Order{CustomerID: "cust-2", Status: model.OrderStatusShipped}
	require.NoError(t, db.Create(delivered).Error)
	require.NoError(t, db.Create(pending).Error)
	require.NoError(t, db.Create(foreign).Error)

	item1 := &model.OrderItem{OrderID: delivered.ID, ProductName: "Canvas print 40x60", Quantity: 1}
	item2 := &model.OrderItem{OrderID: delivered.ID, ProductName: "Mug", Quantity: 2}
	item3 := &model.OrderItem{OrderID: pending.ID, ProductName: "Poster", Quantity: 1}
	item4 := &model.OrderItem{OrderID: foreign.ID, ProductName: "T-shirt", Quantity: 1}
	for _, it := range []*model.OrderItem{item1, item2, item3, item4} {
		require.NoError(t, db.Create(it).Error)
	}

	n := &fakeNotifier{ok: true}
	p := &fakeProducer{}
	return &testEnv{
		svc:            NewIssueService(db, n, p),
		db:             db,
		notifier:       n,
		producer:       p,
		deliveredItem:  item1.ID,
		deliveredItem2: item2.ID,
		pendingItem:    item3.ID,
		foreignItem:    item4.ID,
	}
}

func (e *testEnv) report(t *testing.T, orderItemID uint64) *model.Issue {
	t.Helper()
	issue, err := e.svc.Report(context.Background(), ReportInput{
		OrderItemID: orderItemID,
		CustomerID:  "cust-1",
		Reason:      model.IssueReasonQualityIssue,
		Notes:       "faded print",
	})
	require.NoError(t, err)
	return issue
}

func (e *testEnv) messages(t *testing.T, issueID uint64) []model.IssueMessage {
	t.Helper()
	_, msgs, err := e.svc.GetWithMessages(context.Background(), issueID)
	require.NoError(t, err)
	return msgs
}
