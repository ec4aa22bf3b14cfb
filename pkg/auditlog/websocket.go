package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Wire frames exchanged on the audit feed websocket. The client opens the
// connection, sends a single subscribe frame, and then only reads.
type subscribeFrame struct {
	Type    string    `json:"type"`
	OwnerID uuid.UUID `json:"owner_id"`
}

type eventFrame struct {
	Type  string `json:"type"`
	Entry Entry  `json:"entry"`
}

const (
	frameSubscribe = "subscribe"
	frameInsert    = "insert"

	wsReadLimit = 1 << 16
)

// ErrMissingToken is returned when a websocket feed is opened without a
// bearer credential.
var ErrMissingToken = errors.New("auditlog: bearer token is required")

// WebsocketFeed subscribes to the audit feed endpoint over a websocket.
// One Subscribe call corresponds to one connection; there is no automatic
// reconnection, the consumer reopens on failure.
type WebsocketFeed struct {
	url    string
	token  string
	client *http.Client
}

// WebsocketOption configures a WebsocketFeed.
type WebsocketOption func(*WebsocketFeed)

// WithHTTPClient sets the HTTP client used for the websocket handshake.
func WithHTTPClient(c *http.Client) WebsocketOption {
	return func(f *WebsocketFeed) {
		if c != nil {
			f.client = c
		}
	}
}

// NewWebsocketFeed creates a feed dialing url with the given bearer token.
func NewWebsocketFeed(url, token string, opts ...WebsocketOption) *WebsocketFeed {
	f := &WebsocketFeed{
		url:    url,
		token:  token,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe dials the feed endpoint and sends the owner-scoped subscribe
// frame. Delivered insert notifications are decoded into Entry values on the
// returned subscription's channel.
func (f *WebsocketFeed) Subscribe(ctx context.Context, ownerID uuid.UUID) (Subscription, error) {
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if f.token == "" {
		return nil, ErrMissingToken
	}

	conn, _, err := websocket.Dial(ctx, f.url, &websocket.DialOptions{
		HTTPClient: f.client,
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + f.token}},
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsReadLimit)

	frame, err := json.Marshal(subscribeFrame{Type: frameSubscribe, OwnerID: ownerID})
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "encode subscribe")
		return nil, err
	}
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "send subscribe")
		return nil, err
	}

	sub := &wsSubscription{
		conn: conn,
		ch:   make(chan Entry, DefaultRingSize),
	}
	go sub.readPump(ctx)
	return sub, nil
}

type wsSubscription struct {
	conn      *websocket.Conn
	ch        chan Entry
	closeOnce sync.Once
}

func (s *wsSubscription) Events() <-chan Entry {
	return s.ch
}

func (s *wsSubscription) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
	})
	return nil
}

// readPump reads frames until the connection or context ends. Unknown frame
// types are ignored so the protocol can grow without breaking old clients.
func (s *wsSubscription) readPump(ctx context.Context) {
	defer close(s.ch)
	defer s.Close() //nolint:errcheck // best-effort close on teardown

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type != frameInsert {
			continue
		}

		select {
		case s.ch <- frame.Entry:
		case <-ctx.Done():
			return
		}
	}
}
