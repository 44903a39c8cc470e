package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forwardbot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, zap.NewNop())
}

func TestClient_CheckCodeRequest(t *testing.T) {
	var got checkCodeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/check_code", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success": true}`))
	})

	res := client.CheckCode(context.Background(), 12, "+380001112233", "34567")

	assert.True(t, res.OK())
	assert.Equal(t, int64(12), got.UserID)
	assert.Equal(t, "+380001112233", got.Phone)
	assert.Equal(t, "34567", got.Code)
}

func TestClient_StartTaskRequest(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/start_task", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success": true, "message": "queued"}`))
	})

	cfg := models.Config{
		models.KeySourceChannel: "@src",
		models.KeyPostsCount:    42,
		models.KeyMode:          models.ModeEdit,
	}
	res := client.StartTask(context.Background(), 99, cfg)

	require.True(t, res.OK())
	assert.Equal(t, "queued", res.Message)
	assert.Equal(t, float64(99), got["user_id"])
	sent := got["config"].(map[string]any)
	assert.Equal(t, "@src", sent["source_channel"])
	assert.Equal(t, float64(42), sent["posts_count"])
	assert.Equal(t, "edit", sent["mode"])
}

func TestClient_Classification(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		body       string
		wantStatus Status
		wantMsg    string
	}{
		{"success", http.StatusOK, `{"success": true}`, StatusSuccess, ""},
		{"success with message", http.StatusOK, `{"success": true, "message": "ok"}`, StatusSuccess, "ok"},
		{"falsy success", http.StatusOK, `{"success": false, "message": "wrong code"}`, StatusRejected, "wrong code"},
		{"missing success field", http.StatusOK, `{}`, StatusRejected, ""},
		{"numeric success", http.StatusOK, `{"success": 1}`, StatusSuccess, ""},
		{"zero success", http.StatusOK, `{"success": 0, "message": "no"}`, StatusRejected, "no"},
		{"string success", http.StatusOK, `{"success": "yes"}`, StatusSuccess, ""},
		{"empty string success", http.StatusOK, `{"success": ""}`, StatusRejected, ""},
		{"null success", http.StatusOK, `{"success": null}`, StatusRejected, ""},
		{"not json", http.StatusOK, `accepted`, StatusRejected, "invalid worker response: accepted"},
		{"server error", http.StatusInternalServerError, "boom\n", StatusRejected, "boom"},
		{"bad request empty body", http.StatusBadRequest, "", StatusRejected, "400 Bad Request"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			res := client.StartTask(context.Background(), 1, models.Config{})
			assert.Equal(t, tc.wantStatus, res.Status)
			assert.Equal(t, tc.wantMsg, res.Message)
			assert.Equal(t, tc.status, res.HTTPStatus)
			if tc.wantStatus != StatusSuccess {
				assert.False(t, res.OK())
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, zap.NewNop())
	res := client.CheckCode(context.Background(), 1, "+1", "12345")

	assert.Equal(t, StatusTransportFailure, res.Status)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 0, res.HTTPStatus)
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, 50*time.Millisecond, zap.NewNop())
	res := client.StartTask(context.Background(), 1, models.Config{})

	assert.Equal(t, StatusTransportFailure, res.Status)
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	res := client.StartTask(context.Background(), 1, models.Config{})
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, 1, calls)
}
