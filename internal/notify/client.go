package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notifier — интерфейс исходящих писем клиенту (для подмены моком в тестах).
// Send best-effort: true только если notification-service принял письмо.
type Notifier interface {
	Send(ctx context.Context, n Notification) bool
}

// Notification — тело POST /notify/issue.
type Notification struct {
	Kind        string `json:"kind"`
	Recipient   string `json:"recipient"`
	IssueID     uint64 `json:"issue_id"`
	ProductName string `json:"product_name,omitempty"`
	Body        string `json:"body"`
	CanAppeal   bool   `json:"can_appeal,omitempty"`
}

// Client отправляет письма через notification-service (best-effort,
// не блокирует и не откатывает уже закоммиченный переход).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient возвращает клиент. Если baseURL пустой, Send — no-op (false).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Send отправляет письмо. Любая ошибка (таймаут, ответ провайдера)
// логируется с issue id и kind и никогда не поднимается наверх.
func (c *Client) Send(ctx context.Context, n Notification) bool {
	if c.baseURL == "" {
		return false
	}
	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("notify: marshal: %v", err)
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify/issue", bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: new request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("notify: request for issue %d (%s): %v", n.IssueID, n.Kind, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		log.Printf("notify: status %d for issue %d (%s)", resp.StatusCode, n.IssueID, n.Kind)
		return false
	}
	return true
}
