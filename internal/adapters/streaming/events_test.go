package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

type eventRecorder struct {
	proposes      []core.ProposeInfo
	inits         []*core.Session
	conversations []domain.ConversationUpdate
}

func (r *eventRecorder) OnPropose(_ context.Context, info core.ProposeInfo) {
	r.proposes = append(r.proposes, info)
}

func (r *eventRecorder) OnSessionInit(_ context.Context, s *core.Session) {
	r.inits = append(r.inits, s)
}

func (r *eventRecorder) HandleConversationUpdate(_ context.Context, update domain.ConversationUpdate) {
	r.conversations = append(r.conversations, update)
}

type nilEngine struct{}

func (nilEngine) AcquireMedia(context.Context, core.MediaRequest) (*core.MediaStream, error) {
	return &core.MediaStream{}, nil
}
func (nilEngine) AcquireDisplayMedia(context.Context) (*core.MediaStream, error) {
	return &core.MediaStream{}, nil
}
func (nilEngine) Devices(domain.DeviceKind) []domain.Device       { return nil }
func (nilEngine) SupportsOutputSelection() bool                   { return false }
func (nilEngine) NewPeerConnection() (core.PeerConnection, error) { return nil, nil }
func (nilEngine) NewOutputBinding() core.OutputBinding            { return nil }

func newEventTransport() (*Transport, *eventRecorder) {
	t := NewTransport("wss://example.test/signaling", "token", nilEngine{})
	rec := &eventRecorder{}
	t.SetEvents(rec)
	return t, rec
}

func TestHandleEventPropose(t *testing.T) {
	tr, rec := newEventTransport()

	tr.handleEvent(context.Background(), []byte(`{
		"type": "propose",
		"sessionId": "p1",
		"autoAnswer": true,
		"fromJid": "alice@gjoll.mypurecloud.com",
		"conversationId": "conv-1"
	}`))

	require.Len(t, rec.proposes, 1)
	info := rec.proposes[0]
	assert.Equal(t, domain.SessionID("p1"), info.SessionID)
	assert.True(t, info.AutoAnswer)
	assert.Equal(t, domain.Jid("alice@gjoll.mypurecloud.com"), info.FromJid)
	assert.Equal(t, domain.ConversationID("conv-1"), info.ConversationID)
}

func TestHandleEventInitiateRegistersSession(t *testing.T) {
	tr, rec := newEventTransport()

	tr.handleEvent(context.Background(), []byte(`{
		"type": "initiate",
		"sessionId": "s1",
		"signalingId": "sig-1",
		"fromJid": "alice@gjoll.mypurecloud.com",
		"conversationId": "conv-1"
	}`))

	require.Len(t, rec.inits, 1)
	s, ok := tr.SessionByID("s1")
	require.True(t, ok)
	assert.Equal(t, rec.inits[0], s)
	assert.Equal(t, "sig-1", s.SignalingID)

	byConv, ok := tr.SessionByConversationID("conv-1")
	require.True(t, ok)
	assert.Equal(t, s, byConv)
}

func TestHandleEventTerminateDestroysSession(t *testing.T) {
	tr, _ := newEventTransport()
	tr.handleEvent(context.Background(), []byte(`{
		"type": "initiate",
		"sessionId": "s1",
		"conversationId": "conv-1"
	}`))
	s, ok := tr.SessionByID("s1")
	require.True(t, ok)

	done := make(chan error, 1)
	go func() { done <- tr.AwaitTerminated(context.Background(), s) }()

	tr.handleEvent(context.Background(), []byte(`{"type": "terminate", "sessionId": "s1"}`))

	require.NoError(t, <-done)
	_, ok = tr.SessionByID("s1")
	assert.False(t, ok)
	_, ok = tr.SessionByConversationID("conv-1")
	assert.False(t, ok)
}

func TestAwaitTerminatedAfterTerminate(t *testing.T) {
	tr, _ := newEventTransport()
	tr.handleEvent(context.Background(), []byte(`{
		"type": "initiate",
		"sessionId": "s1",
		"conversationId": "conv-1"
	}`))
	s, ok := tr.SessionByID("s1")
	require.True(t, ok)

	// The peer's terminate lands before anyone waits on it.
	tr.handleEvent(context.Background(), []byte(`{"type": "terminate", "sessionId": "s1"}`))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tr.AwaitTerminated(ctx, s), "late waiter must see the already-closed signal")
}

func TestHandleEventConversation(t *testing.T) {
	tr, rec := newEventTransport()

	tr.handleEvent(context.Background(), []byte(`{
		"type": "conversation",
		"conversationId": "conv-1",
		"participants": [{"id": "part-1", "userId": "user-1", "muted": true}]
	}`))

	require.Len(t, rec.conversations, 1)
	update := rec.conversations[0]
	assert.Equal(t, domain.ConversationID("conv-1"), update.ConversationID)
	require.Len(t, update.Participants, 1)
	assert.True(t, update.Participants[0].Muted)
}

func TestHandleEventUnknownTypeIgnored(t *testing.T) {
	tr, rec := newEventTransport()

	tr.handleEvent(context.Background(), []byte(`{"type": "weather-report"}`))
	tr.handleEvent(context.Background(), []byte(`not json`))

	assert.Empty(t, rec.proposes)
	assert.Empty(t, rec.inits)
	assert.Empty(t, rec.conversations)
}

func TestTrySendBackpressure(t *testing.T) {
	tr, _ := newEventTransport()

	for {
		if err := tr.trySend([]byte("x")); err != nil {
			assert.ErrorIs(t, err, ErrBackpressure)
			break
		}
	}
}
