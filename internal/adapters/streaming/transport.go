// Package streaming binds the session core to the signaling websocket. It
// owns the live-session collection and translates wire events into session
// manager hook calls.
package streaming

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Transport implements core.SignalingTransport over a websocket connection.
type Transport struct {
	url   string
	token string
	media core.MediaEngine

	conn *websocket.Conn
	send chan []byte

	mu             sync.RWMutex
	closed         bool
	sessions       map[domain.SessionID]*core.Session
	byConversation map[domain.ConversationID]domain.SessionID
	terminated     map[domain.SessionID]chan struct{}

	// events is the session manager; set before Connect.
	events core.SessionEvents
}

func NewTransport(url, token string, media core.MediaEngine) *Transport {
	return &Transport{
		url:            url,
		token:          token,
		media:          media,
		send:           make(chan []byte, 32),
		sessions:       make(map[domain.SessionID]*core.Session),
		byConversation: make(map[domain.ConversationID]domain.SessionID),
		terminated:     make(map[domain.SessionID]chan struct{}),
	}
}

// SetEvents wires the inbound hooks. Must be called before Connect.
func (t *Transport) SetEvents(events core.SessionEvents) { t.events = events }

// Connect dials the signaling endpoint and starts the read/write pumps.
// The connection lives until ctx is done or the peer closes.
func (t *Transport) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, header)
	if err != nil {
		return err
	}
	t.conn = conn
	log.Info().Str("module", "streaming").Str("url", t.url).Msg("signaling connected")

	go t.writePump(ctx)
	go t.readPump(ctx)
	return nil
}

func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.send)
	t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

func (t *Transport) trySend(b []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return errors.New("transport closed")
	}
	select {
	case t.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

// SessionByID returns the live session with the given id.
func (t *Transport) SessionByID(id domain.SessionID) (*core.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// SessionByConversationID returns the live session owning the conversation.
func (t *Transport) SessionByConversationID(id domain.ConversationID) (*core.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sid, ok := t.byConversation[id]
	if !ok {
		return nil, false
	}
	s, ok := t.sessions[sid]
	return s, ok
}

// Sessions snapshots the live-session collection.
func (t *Transport) Sessions() []*core.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*core.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}

// terminatedChan returns the one-shot terminated signal for a session. For a
// session already torn down the map holds the closed channel, so waiters
// never block on a terminate that has already happened.
func (t *Transport) terminatedChan(id domain.SessionID) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.terminated[id]
	if !ok {
		ch = make(chan struct{})
		t.terminated[id] = ch
	}
	return ch
}

// AwaitTerminated blocks until the peer-side terminate for the session
// arrives or ctx is done.
func (t *Transport) AwaitTerminated(ctx context.Context, s *core.Session) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.terminatedChan(s.ID):
		return nil
	}
}

// removeSession destroys the transport-owned session entry. The terminated
// channel stays in the map, closed, so a waiter arriving after the peer's
// terminate still returns immediately instead of blocking on a channel
// nothing will ever close.
func (t *Transport) removeSession(id domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		delete(t.byConversation, s.ConversationID)
		delete(t.sessions, id)
	}
	ch, ok := t.terminated[id]
	if !ok {
		ch = make(chan struct{})
		t.terminated[id] = ch
	}
	select {
	case <-ch:
	default:
		close(ch)
	}
}
