package streaming

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// Outbound control messages (core.SignalingTransport operations).

func (t *Transport) Propose(_ context.Context, jid domain.Jid, conversationID domain.ConversationID) error {
	return t.sendJSON(struct {
		Type           string `json:"type"`
		Jid            string `json:"jid"`
		ConversationID string `json:"conversationId"`
	}{"propose", string(jid), string(conversationID)})
}

func (t *Transport) AcceptPending(_ context.Context, pending *domain.PendingSession) error {
	return t.sendJSON(struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}{"proceed", string(pending.ID)})
}

func (t *Transport) RejectPending(_ context.Context, pending *domain.PendingSession) error {
	return t.sendJSON(struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}{"reject", string(pending.ID)})
}

func (t *Transport) NotifyReady(_ context.Context, s *core.Session) error {
	return t.sendJSON(struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}{"accept", string(s.ID)})
}

func (t *Transport) Terminate(_ context.Context, s *core.Session) error {
	return t.sendJSON(struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}{"terminate", string(s.ID)})
}

// Inbound event dispatch.

func (t *Transport) handleEvent(ctx context.Context, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("bad event json")
		return
	}

	switch env.Type {
	case "propose":
		t.handlePropose(ctx, data)
	case "initiate":
		t.handleInitiate(ctx, data)
	case "terminate":
		t.handleTerminate(data)
	case "conversation":
		t.handleConversation(ctx, data)
	default:
		log.Warn().Str("module", "streaming").Str("type", env.Type).Msg("unknown event")
	}
}

func (t *Transport) handlePropose(ctx context.Context, data []byte) {
	var p struct {
		SessionID      string `json:"sessionId"`
		AutoAnswer     bool   `json:"autoAnswer"`
		FromJid        string `json:"fromJid"`
		ConversationID string `json:"conversationId"`
		RoomJid        string `json:"roomJid"`
		FromUserID     string `json:"fromUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("bad propose payload")
		return
	}
	t.events.OnPropose(ctx, core.ProposeInfo{
		SessionID:      domain.SessionID(p.SessionID),
		AutoAnswer:     p.AutoAnswer,
		FromJid:        domain.Jid(p.FromJid),
		ConversationID: domain.ConversationID(p.ConversationID),
		RoomJid:        domain.Jid(p.RoomJid),
		FromUserID:     domain.UserID(p.FromUserID),
	})
}

func (t *Transport) handleInitiate(ctx context.Context, data []byte) {
	var p struct {
		SessionID      string `json:"sessionId"`
		SignalingID    string `json:"signalingId"`
		FromJid        string `json:"fromJid"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("bad initiate payload")
		return
	}

	pc, err := t.media.NewPeerConnection()
	if err != nil {
		log.Error().Err(err).Str("module", "streaming").
			Str("sessionId", p.SessionID).
			Msg("initiate: peer connection setup failed")
		return
	}
	s := &core.Session{
		ID:             domain.SessionID(p.SessionID),
		SignalingID:    p.SignalingID,
		PeerJid:        domain.Jid(p.FromJid),
		ConversationID: domain.ConversationID(p.ConversationID),
		PC:             pc,
	}

	t.mu.Lock()
	t.sessions[s.ID] = s
	t.byConversation[s.ConversationID] = s.ID
	t.mu.Unlock()

	t.events.OnSessionInit(ctx, s)
}

func (t *Transport) handleTerminate(data []byte) {
	var p struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("bad terminate payload")
		return
	}
	log.Info().Str("module", "streaming").Str("sessionId", p.SessionID).Msg("session terminated by transport")
	t.removeSession(domain.SessionID(p.SessionID))
}

func (t *Transport) handleConversation(ctx context.Context, data []byte) {
	var p struct {
		ConversationID string               `json:"conversationId"`
		Participants   []domain.Participant `json:"participants"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("bad conversation payload")
		return
	}
	t.events.HandleConversationUpdate(ctx, domain.ConversationUpdate{
		ConversationID: domain.ConversationID(p.ConversationID),
		Participants:   p.Participants,
	})
}
