package auditlog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/sprout/pkg/auditlog"
)

// feedServer accepts one websocket connection, validates the subscribe
// frame, and emits the given entries as insert notifications.
func feedServer(t *testing.T, wantOwner uuid.UUID, wantToken string, entries []auditlog.Entry) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, data, err := conn.Read(ctx)
		require.NoError(t, err)

		var sub struct {
			Type    string    `json:"type"`
			OwnerID uuid.UUID `json:"owner_id"`
		}
		require.NoError(t, json.Unmarshal(data, &sub))
		assert.Equal(t, "subscribe", sub.Type)
		assert.Equal(t, wantOwner, sub.OwnerID)

		for _, e := range entries {
			frame, err := json.Marshal(map[string]any{"type": "insert", "entry": e})
			require.NoError(t, err)
			require.NoError(t, conn.Write(ctx, websocket.MessageText, frame))
		}

		// Keep the connection open until the client walks away.
		_, _, _ = conn.Read(ctx)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketFeed_DeliversInserts(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	entries := []auditlog.Entry{makeEntry("subscription_created"), makeEntry("subscription_updated")}
	srv := feedServer(t, owner, "tok-1", entries)
	defer srv.Close()

	feed := auditlog.NewWebsocketFeed(wsURL(srv), "tok-1")
	sub, err := feed.Subscribe(context.Background(), owner)
	require.NoError(t, err)
	defer sub.Close()

	first := receiveOne(t, sub)
	second := receiveOne(t, sub)
	assert.Equal(t, entries[0].ID, first.ID)
	assert.Equal(t, entries[1].ID, second.ID)
}

func TestWebsocketFeed_RequiresToken(t *testing.T) {
	t.Parallel()

	feed := auditlog.NewWebsocketFeed("ws://127.0.0.1:0", "")
	_, err := feed.Subscribe(context.Background(), uuid.New())
	assert.ErrorIs(t, err, auditlog.ErrMissingToken)
}

func TestWebsocketFeed_RequiresOwner(t *testing.T) {
	t.Parallel()

	feed := auditlog.NewWebsocketFeed("ws://127.0.0.1:0", "tok")
	_, err := feed.Subscribe(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, auditlog.ErrMissingOwner)
}

func TestWebsocketFeed_RejectedHandshake(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, uuid.New(), "expected", nil)
	defer srv.Close()

	feed := auditlog.NewWebsocketFeed(wsURL(srv), "wrong-token")
	_, err := feed.Subscribe(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestWebsocketFeed_CloseEndsStream(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	srv := feedServer(t, owner, "tok", nil)
	defer srv.Close()

	feed := auditlog.NewWebsocketFeed(wsURL(srv), "tok")
	sub, err := feed.Subscribe(context.Background(), owner)
	require.NoError(t, err)

	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after Close")
	}
}
