// Package domain contains entities without logic, just meta-data.
package domain

import "strings"

type (
	SessionID      string
	ConversationID string
	UserID         string
	Jid            string
)

// SessionType determines which handler owns a session. Immutable per session.
type SessionType string

const (
	SessionTypeSoftphone   SessionType = "softphone"
	SessionTypeVideo       SessionType = "video"
	SessionTypeScreenShare SessionType = "screenShare"
)

// AllSessionTypes lists every type the SDK knows, in handler registration order.
func AllSessionTypes() []SessionType {
	return []SessionType{SessionTypeSoftphone, SessionTypeVideo, SessionTypeScreenShare}
}

// IsSoftphoneJid reports whether jid addresses the softphone (gjoll) domain.
func (j Jid) IsSoftphone() bool {
	at := strings.Index(string(j), "@")
	return at > 0 && strings.Contains(string(j)[at:], "gjoll")
}

// IsAcd reports whether jid is an ACD interaction address.
func (j Jid) IsAcd() bool {
	return strings.HasPrefix(string(j), "acd-")
}

// IsConference reports whether jid addresses a conference room.
func (j Jid) IsConference() bool {
	return strings.Contains(string(j), "@conference")
}

// PendingSession is a proposed, not-yet-accepted session. Owned exclusively by
// the session manager's pending registry.
type PendingSession struct {
	ID             SessionID
	SessionType    SessionType
	AutoAnswer     bool
	FromJid        Jid
	ConversationID ConversationID
	// RoomJid is set for video proposals originating from a conference room.
	RoomJid Jid
	// FromUserID is set when the proposal carries the originating user.
	FromUserID UserID
}

// Participant is a projection of the conversation-side record for one party
// on a call. Fetched once per session and cached until session end.
type Participant struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Purpose   string `json:"purpose"`
	State     string `json:"state"`
	Direction string `json:"direction"`
	UserID    UserID `json:"userId"`
	Muted     bool   `json:"muted"`
	Confined  bool   `json:"confined"`
}

// Participant states used by the SDK.
const (
	ParticipantStateConnected    = "connected"
	ParticipantStateDisconnected = "disconnected"
)

// ParticipantPatch updates a subset of a participant's conversation-side
// fields. Nil fields are left unchanged.
type ParticipantPatch struct {
	State *string `json:"state,omitempty"`
	Muted *bool   `json:"muted,omitempty"`
	Held  *bool   `json:"held,omitempty"`
}

// ConversationUpdate is an out-of-band change to a conversation, delivered by
// the signaling transport.
type ConversationUpdate struct {
	ConversationID ConversationID
	Participants   []Participant
}
