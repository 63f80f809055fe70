package core

import (
	"context"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// SignalingTransport abstracts the Jingle-style session negotiation layer.
// The adapter owns the live-session collection and destroys sessions when
// the peer terminates them.
type SignalingTransport interface {
	SessionByID(id domain.SessionID) (*Session, bool)
	SessionByConversationID(id domain.ConversationID) (*Session, bool)
	Sessions() []*Session

	// Propose initiates an outbound session toward jid.
	Propose(ctx context.Context, jid domain.Jid, conversationID domain.ConversationID) error

	// AcceptPending answers a proposal; RejectPending declines it.
	AcceptPending(ctx context.Context, pending *domain.PendingSession) error
	RejectPending(ctx context.Context, pending *domain.PendingSession) error

	// NotifyReady tells the peer the local side has attached media and the
	// session may go active.
	NotifyReady(ctx context.Context, s *Session) error

	// Terminate ends the session at the transport level.
	Terminate(ctx context.Context, s *Session) error

	// AwaitTerminated blocks until the transport reports the session
	// terminated. The notification is consumed once per end attempt.
	AwaitTerminated(ctx context.Context, s *Session) error
}

// SessionEvents are the inbound lifecycle hooks the transport binding calls
// on the session manager.
type SessionEvents interface {
	OnPropose(ctx context.Context, info ProposeInfo)
	OnSessionInit(ctx context.Context, s *Session)
	HandleConversationUpdate(ctx context.Context, update domain.ConversationUpdate)
}

// ProposeInfo is the raw proposal payload before the manager stamps a type
// and registers a pending session.
type ProposeInfo struct {
	SessionID      domain.SessionID
	AutoAnswer     bool
	FromJid        domain.Jid
	ConversationID domain.ConversationID
	RoomJid        domain.Jid
	FromUserID     domain.UserID
}
