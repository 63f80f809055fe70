package core

import "github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"

// Session is a live, transport-negotiated session. The signaling transport
// owns the session collection and destroys entries on termination; the
// orchestration core only references and mutates sessions through their
// owning handler. Per-session entry points are invoked by the transport one
// at a time, so fields carry no lock of their own.
type Session struct {
	ID             domain.SessionID
	SignalingID    string
	PeerJid        domain.Jid
	ConversationID domain.ConversationID

	// Type is assigned by the session manager on init, not by the transport.
	Type domain.SessionType

	// Participant is the lazily-resolved conversation participant record,
	// cached until session end.
	Participant *domain.Participant

	PC PeerConnection

	// RemoteStream collects the peer's incoming tracks as they arrive.
	RemoteStream *MediaStream

	AudioTrack  Track
	VideoTrack  Track
	ScreenTrack Track

	// Output is the attached output-audio binding, nil until accept.
	Output OutputBinding

	// RestoreVideoOnScreenShareEnd marks that an outgoing camera track was
	// displaced by screen capture and should come back once sharing stops.
	RestoreVideoOnScreenShareEnd bool

	// Ended is set once an end attempt has completed; ending again is a no-op.
	Ended bool
}
