package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/printops/issue-service/internal/errs"
	"github.com/printops/issue-service/internal/model"
	"github.com/printops/issue-service/internal/service"
)

type IssueHandler struct {
	svc service.IssueServicer
}

func NewIssueHandler(svc service.IssueServicer) *IssueHandler {
	return &IssueHandler{svc: svc}
}

// Идентичность действующего лица приходит с края (gateway проставляет
// заголовки после аутентификации) и передаётся в сервис явно.
const (
	headerAdminID    = "X-Admin-ID"
	headerCustomerID = "X-Customer-ID"
)

func httpStatus(code errs.Code) int {
	switch code {
	case errs.CodeValidation:
		return http.StatusBadRequest
	case errs.CodeForbidden:
		return http.StatusForbidden
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInvalidState, errs.CodeConflict, errs.CodeStaleState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError мапит доменную ошибку на HTTP один раз, на краю.
func respondError(c *gin.Context, err error) {
	if code := errs.CodeOf(err); code != "" {
		c.JSON(httpStatus(code), gin.H{"code": code, "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func issueID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid id"})
		return 0, false
	}
	return id, true
}

type reportIssueRequest struct {
	OrderItemID uint64   `json:"order_item_id" binding:"required"`
	Reason      string   `json:"reason" binding:"required"`
	Notes       string   `json:"notes"`
	ImageURLs   []string `json:"image_urls"`
}

func (h *IssueHandler) Report(c *gin.Context) {
	var req reportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid body"})
		return
	}
	issue, err := h.svc.Report(c.Request.Context(), service.ReportInput{
		OrderItemID: req.OrderItemID,
		CustomerID:  c.GetHeader(headerCustomerID),
		Reason:      model.IssueReason(req.Reason),
		Notes:       req.Notes,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue_id": issue.ID, "issue": issue})
}

func (h *IssueHandler) Get(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, messages, err := h.svc.GetWithMessages(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue, "messages": messages})
}

func (h *IssueHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("customer_id"); v != "" {
		filter["customer_id = ?"] = v
	}
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}
	if v := c.Query("order_item_id"); v != "" {
		filter["order_item_id = ?"] = v
	}
	if v := c.Query("carrier_fault"); v != "" {
		filter["carrier_fault = ?"] = v
	}
	if v := c.Query("concluded"); v != "" {
		filter["concluded = ?"] = v == "true"
	}

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issues": items,
		"total":  total,
	})
}

type reviewIssueRequest struct {
	Action           string `json:"action" binding:"required"`
	Message          string `json:"message"`
	IsFinalRejection bool   `json:"is_final_rejection"`
}

func (h *IssueHandler) Review(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	var req reviewIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid body"})
		return
	}
	issue, err := h.svc.Review(c.Request.Context(), service.ReviewInput{
		IssueID:          id,
		AdminID:          c.GetHeader(headerAdminID),
		Action:           service.ReviewAction(req.Action),
		Message:          req.Message,
		IsFinalRejection: req.IsFinalRejection,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type customerMessageRequest struct {
	Content   string   `json:"content" binding:"required"`
	ImageURLs []string `json:"image_urls"`
}

func (h *IssueHandler) AddMessage(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	var req customerMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid body"})
		return
	}
	issue, err := h.svc.AddCustomerMessage(c.Request.Context(), id, c.GetHeader(headerCustomerID), req.Content, req.ImageURLs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type concludeIssueRequest struct {
	Reason         string `json:"reason"`
	NotifyCustomer bool   `json:"notify_customer"`
}

func (h *IssueHandler) Conclude(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	var req concludeIssueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid body"})
			return
		}
	}
	issue, err := h.svc.Conclude(c.Request.Context(), id, c.GetHeader(headerAdminID), req.Reason, req.NotifyCustomer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

func (h *IssueHandler) Reopen(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, err := h.svc.Reopen(c.Request.Context(), id, c.GetHeader(headerAdminID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

type carrierFaultRequest struct {
	Value string `json:"value" binding:"required"`
}

func (h *IssueHandler) SetCarrierFault(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	var req carrierFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "error": "invalid body"})
		return
	}
	issue, err := h.svc.SetCarrierFault(c.Request.Context(), id, model.CarrierFault(req.Value))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}
