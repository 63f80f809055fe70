// Package sessions is the call-session orchestration core: it routes every
// inbound lifecycle event to the handler owning the session's type and keeps
// the registry of not-yet-accepted proposals.
package sessions

import (
	"context"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// StartSessionRequest starts an outbound session of the given type.
type StartSessionRequest struct {
	SessionType domain.SessionType

	// PhoneNumber is the dial target for softphone sessions.
	PhoneNumber string

	// RoomJid is the conference room for video sessions.
	RoomJid domain.Jid

	ConversationID domain.ConversationID
}

// AcceptSessionRequest answers a proposed or initializing session.
type AcceptSessionRequest struct {
	SessionID domain.SessionID

	// MediaStream is caller-supplied outgoing media. When nil the handler
	// acquires a stream fitting its session type.
	MediaStream *core.MediaStream
}

// EndSessionRequest identifies the session to end by id or conversation id.
type EndSessionRequest struct {
	SessionID      domain.SessionID
	ConversationID domain.ConversationID
}

// MuteRequest toggles audio or video mute on a session.
type MuteRequest struct {
	Mute bool

	// UnmuteDevice selects the capture device when unmuting re-acquires
	// media. Zero value keeps the current device.
	UnmuteDevice domain.DeviceTarget
}

// Handler is the type-specific policy object implementing the session
// lifecycle for one session type. Concrete handlers share baseHandler and
// override only what differs.
type Handler interface {
	SessionType() domain.SessionType

	// Disabled reports that this handler's type is configured off for the
	// running instance. Every entry point short-circuits when disabled.
	Disabled() bool

	// ShouldHandleSessionByJid pattern-matches the peer address. Used only
	// when a session's type is not yet known; each handler owns a disjoint
	// address pattern.
	ShouldHandleSessionByJid(jid domain.Jid) bool

	StartSession(ctx context.Context, req StartSessionRequest) error

	HandlePropose(ctx context.Context, pending *domain.PendingSession) error
	ProceedWithSession(ctx context.Context, pending *domain.PendingSession) error
	RejectPendingSession(ctx context.Context, pending *domain.PendingSession) error

	HandleSessionInit(ctx context.Context, s *core.Session) error
	AcceptSession(ctx context.Context, s *core.Session, req AcceptSessionRequest) error
	EndSession(ctx context.Context, s *core.Session) error

	SetAudioMute(ctx context.Context, s *core.Session, req MuteRequest) error
	SetVideoMute(ctx context.Context, s *core.Session, req MuteRequest) error

	UpdateOutgoingMedia(ctx context.Context, s *core.Session, update domain.MediaUpdate) error
	UpdateOutputDevice(ctx context.Context, s *core.Session, target domain.DeviceTarget) error

	HandleConversationUpdate(ctx context.Context, s *core.Session, update domain.ConversationUpdate)
}
