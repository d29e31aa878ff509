package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	path   string
	chatID string
	text   string
}

func newTestNotifier(t *testing.T, errorChatID string) (*TelegramNotifier, *[]sentMessage) {
	t.Helper()
	var sent []sentMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bottoken/sendMessage":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			sent = append(sent, sentMessage{path: r.URL.Path, chatID: payload["chat_id"], text: payload["text"]})
		case r.URL.Path == "/bottoken/sendPhoto":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, _, err := r.FormFile("photo")
			require.NoError(t, err)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			sent = append(sent, sentMessage{path: r.URL.Path, chatID: r.FormValue("chat_id"), text: r.FormValue("caption")})
		default:
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("token", "chat-1", errorChatID)
	n.BaseURL = srv.URL
	n.Client = srv.Client()
	return n, &sent
}

func TestSend(t *testing.T) {
	n, sent := newTestNotifier(t, "")

	require.NoError(t, n.Send("<b>hello</b>"))
	require.Len(t, *sent, 1)
	assert.Equal(t, "chat-1", (*sent)[0].chatID)
	assert.Equal(t, "<b>hello</b>", (*sent)[0].text)
}

func TestSendPhoto(t *testing.T) {
	n, sent := newTestNotifier(t, "")
	path := filepath.Join(t.TempDir(), "BTC_1.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	require.NoError(t, n.SendPhoto(path, "caption"))
	require.Len(t, *sent, 1)
	assert.Equal(t, "/bottoken/sendPhoto", (*sent)[0].path)
	assert.Equal(t, "caption", (*sent)[0].text)
}

func TestSendPhotoMissingFile(t *testing.T) {
	n, _ := newTestNotifier(t, "")
	assert.Error(t, n.SendPhoto(filepath.Join(t.TempDir(), "missing.png"), "caption"))
}

func TestSendErrorUsesErrorChat(t *testing.T) {
	n, sent := newTestNotifier(t, "chat-err")

	n.SendError("boom")
	require.Len(t, *sent, 1)
	assert.Equal(t, "chat-err", (*sent)[0].chatID)
}

func TestSendErrorFallsBackToMainChat(t *testing.T) {
	n, sent := newTestNotifier(t, "")

	n.SendError("boom")
	require.Len(t, *sent, 1)
	assert.Equal(t, "chat-1", (*sent)[0].chatID)
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat-1", "")
	n.BaseURL = srv.URL
	n.Client = srv.Client()
	assert.Error(t, n.Send("hello"))
}

func newFlakyNotifier(t *testing.T, failures int) (*TelegramNotifier, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= failures {
			http.Error(w, `{"ok":false}`, http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("token", "chat-1", "")
	n.BaseURL = srv.URL
	n.Client = srv.Client()
	n.Backoff = time.Millisecond
	return n, &calls
}

func TestSendWithRetryRecovers(t *testing.T) {
	n, calls := newFlakyNotifier(t, 1)

	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 2))
	assert.Equal(t, 2, *calls)
}

func TestSendWithRetryExhausted(t *testing.T) {
	n, calls := newFlakyNotifier(t, 10)

	err := n.SendWithRetry(context.Background(), "hello", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
	assert.Equal(t, 2, *calls)
}

func TestSendWithRetryHonorsContext(t *testing.T) {
	n, calls := newFlakyNotifier(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendWithRetry(ctx, "hello", 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}
