package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/printops/issue-service/internal/model"
	"github.com/printops/issue-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, uint64) {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	order := &model.Order{CustomerID: "cust-1", Status: model.OrderStatusDelivered}
	require.NoError(t, db.Create(order).Error)
	item := &model.OrderItem{OrderID: order.ID, ProductName: "Poster A2"}
	require.NoError(t, db.Create(item).Error)

	h := NewIssueHandler(service.NewIssueService(db, nil, nil))
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/issues", h.Report)
	v1.GET("/issues/:id", h.Get)
	v1.GET("/issues", h.List)
	v1.POST("/issues/:id/review", h.Review)
	v1.POST("/issues/:id/messages", h.AddMessage)
	v1.POST("/issues/:id/conclude", h.Conclude)
	v1.POST("/issues/:id/reopen", h.Reopen)
	v1.PUT("/issues/:id/carrier-fault", h.SetCarrierFault)
	return r, item.ID
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func reportIssue(t *testing.T, r *gin.Engine, itemID uint64) uint64 {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/issues",
		gin.H{"order_item_id": itemID, "reason": "PRINTING_ERROR", "notes": "smudged ink"},
		map[string]string{"X-Customer-ID": "cust-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		IssueID uint64 `json:"issue_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.IssueID
}

func TestReportAndGetIssue(t *testing.T) {
	r, itemID := setupRouter(t)
	id := reportIssue(t, r, itemID)

	w := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Issue    model.Issue         `json:"issue"`
		Messages []model.IssueMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.IssueStatusAwaitingReview, resp.Issue.Status)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "smudged ink", resp.Messages[0].Content)
}

func TestReportErrorMapping(t *testing.T) {
	r, itemID := setupRouter(t)

	// нет такой позиции
	w := do(t, r, http.MethodPost, "/api/v1/issues",
		gin.H{"order_item_id": 9999, "reason": "OTHER"},
		map[string]string{"X-Customer-ID": "cust-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// чужой заказ
	w = do(t, r, http.MethodPost, "/api/v1/issues",
		gin.H{"order_item_id": itemID, "reason": "OTHER"},
		map[string]string{"X-Customer-ID": "cust-2"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// мусорный reason
	w = do(t, r, http.MethodPost, "/api/v1/issues",
		gin.H{"order_item_id": itemID, "reason": "BAD"},
		map[string]string{"X-Customer-ID": "cust-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// дубль открытого репорта
	reportIssue(t, r, itemID)
	w = do(t, r, http.MethodPost, "/api/v1/issues",
		gin.H{"order_item_id": itemID, "reason": "OTHER"},
		map[string]string{"X-Customer-ID": "cust-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewEndpoint(t *testing.T) {
	r, itemID := setupRouter(t)
	id := reportIssue(t, r, itemID)
	admin := map[string]string{"X-Admin-ID": "adm-1"}

	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/review", id),
		gin.H{"action": "REQUEST_INFO"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code) // message required

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/review", id),
		gin.H{"action": "APPROVE_REFUND"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Issue model.Issue `json:"issue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.IssueStatusApprovedRefund, resp.Issue.Status)

	// повторное ревью терминального статуса
	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/review", id),
		gin.H{"action": "REJECT", "message": "no"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/issues/4242/review",
		gin.H{"action": "APPROVE_REFUND"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConcludeReopenEndpoints(t *testing.T) {
	r, itemID := setupRouter(t)
	id := reportIssue(t, r, itemID)
	admin := map[string]string{"X-Admin-ID": "adm-1"}

	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/conclude", id),
		gin.H{"reason": "resolved by phone"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/conclude", id), nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/reopen", id), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/reopen", id), nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCarrierFaultEndpoint(t *testing.T) {
	r, itemID := setupRouter(t)
	id := reportIssue(t, r, itemID)

	w := do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/issues/%d/carrier-fault", id),
		gin.H{"value": "CARRIER_FAULT"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/issues/%d/carrier-fault", id),
		gin.H{"value": "MAYBE"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/issues/4242/carrier-fault",
		gin.H{"value": "CARRIER_FAULT"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListIssues(t *testing.T) {
	r, itemID := setupRouter(t)
	reportIssue(t, r, itemID)

	w := do(t, r, http.MethodGet, "/api/v1/issues?customer_id=cust-1&status=AWAITING_REVIEW", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Issues []model.Issue `json:"issues"`
		Total  int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Issues, 1)
}
