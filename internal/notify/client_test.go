package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsNotification(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/notify/issue", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sent := c.Send(context.Background(), Notification{
		Kind:      "issue_rejected",
		Recipient: "cust-1",
		IssueID:   7,
		Body:      "out of warranty",
		CanAppeal: true,
	})
	assert.True(t, sent)
	assert.Equal(t, "issue_rejected", got.Kind)
	assert.Equal(t, uint64(7), got.IssueID)
	assert.True(t, got.CanAppeal)
}

func TestSendReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.False(t, c.Send(context.Background(), Notification{Kind: "issue_concluded", IssueID: 1}))
}

func TestSendNoopWithoutBaseURL(t *testing.T) {
	c := NewClient("")
	assert.False(t, c.Send(context.Background(), Notification{IssueID: 1}))
}
