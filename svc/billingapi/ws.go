package billingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/principal"
)

// Wire frames of the audit feed websocket. The client sends one subscribe
// frame after the handshake and then only reads insert frames.
type subscribeFrame struct {
	Type    string    `json:"type"`
	OwnerID uuid.UUID `json:"owner_id"`
}

type eventFrame struct {
	Type  string         `json:"type"`
	Entry auditlog.Entry `json:"entry"`
}

const (
	frameSubscribe = "subscribe"
	frameInsert    = "insert"

	wsReadLimit      = 1 << 16
	subscribeTimeout = 10 * time.Second
)

// auditFeed upgrades the request and streams the caller's audit entries.
// The subscribe frame must scope the feed to the authenticated principal;
// asking for another owner's stream is a policy violation.
func (h *handlers) auditFeed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.DebugContext(r.Context(), "websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)
	ctx := r.Context()

	readCtx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	_, data, err := conn.Read(readCtx)
	cancel()
	if err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, "subscribe frame expected")
		return
	}
	var frame subscribeFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != frameSubscribe {
		_ = conn.Close(websocket.StatusPolicyViolation, "subscribe frame expected")
		return
	}
	if frame.OwnerID != p.ID {
		_ = conn.Close(websocket.StatusPolicyViolation, "owner mismatch")
		return
	}

	sub, err := h.feed.Subscribe(ctx, p.ID)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to subscribe audit feed", "error", err, "owner_id", p.ID)
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer sub.Close() //nolint:errcheck // best-effort teardown

	// Drain the connection so close and ping frames keep being processed
	// while the handler only writes.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for entry := range sub.Events() {
		payload, err := json.Marshal(eventFrame{Type: frameInsert, Entry: entry})
		if err != nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}
