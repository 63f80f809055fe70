package sessions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// pendingRegistry is the slice of the manager the handlers need: dropping a
// pending entry once it has been answered or declined.
type pendingRegistry interface {
	RemovePendingSession(id domain.SessionID)
}

// baseHandler carries the default session lifecycle shared by every concrete
// handler. Concrete handlers embed it and override only what differs.
type baseHandler struct {
	sessionType domain.SessionType
	disabled    bool
	userID      domain.UserID

	transport core.SignalingTransport
	media     core.MediaEngine
	api       core.ConversationsAPI
	registry  pendingRegistry
}

func (h *baseHandler) SessionType() domain.SessionType { return h.sessionType }

func (h *baseHandler) Disabled() bool { return h.disabled }

func (h *baseHandler) errDisabled() error {
	return domain.NewCallError(domain.ErrGeneric, "session type is disabled",
		"sessionType", h.sessionType)
}

// ShouldHandleSessionByJid must be owned by each concrete handler; the base
// matches nothing.
func (h *baseHandler) ShouldHandleSessionByJid(domain.Jid) bool { return false }

// StartSession is not supported by default; outbound-capable handlers
// override it.
func (h *baseHandler) StartSession(_ context.Context, req StartSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	return domain.NewCallError(domain.ErrGeneric, "start session not supported",
		"sessionType", h.sessionType)
}

// HandlePropose records the proposal; subclasses may auto-accept here.
func (h *baseHandler) HandlePropose(_ context.Context, pending *domain.PendingSession) error {
	if h.disabled {
		return nil
	}
	log.Info().Str("module", "sessions").
		Str("sessionId", string(pending.ID)).
		Str("sessionType", string(pending.SessionType)).
		Str("conversationId", string(pending.ConversationID)).
		Bool("autoAnswer", pending.AutoAnswer).
		Msg("session proposed")
	return nil
}

// HandleSessionInit performs bookkeeping only; the manager has already
// stamped the session type. Subclasses may auto-connect here.
func (h *baseHandler) HandleSessionInit(_ context.Context, s *core.Session) error {
	if h.disabled {
		return nil
	}
	log.Info().Str("module", "sessions").
		Str("sessionId", string(s.ID)).
		Str("sessionType", string(s.Type)).
		Str("conversationId", string(s.ConversationID)).
		Msg("session initiated")
	return nil
}

// ProceedWithSession answers the proposal through the transport and drops
// the pending entry on success.
func (h *baseHandler) ProceedWithSession(ctx context.Context, pending *domain.PendingSession) error {
	if h.disabled {
		return h.errDisabled()
	}
	if err := h.transport.AcceptPending(ctx, pending); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to accept proposed session",
			"sessionId", pending.ID).WithCause(err)
	}
	h.registry.RemovePendingSession(pending.ID)
	return nil
}

// RejectPendingSession declines the proposal through the transport and drops
// the pending entry on success.
func (h *baseHandler) RejectPendingSession(ctx context.Context, pending *domain.PendingSession) error {
	if h.disabled {
		return h.errDisabled()
	}
	if err := h.transport.RejectPending(ctx, pending); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to reject proposed session",
			"sessionId", pending.ID).WithCause(err)
	}
	h.registry.RemovePendingSession(pending.ID)
	return nil
}

// AcceptSession attaches the caller-specified media and notifies the
// transport the session is ready. The pending entry for this id is removed
// unconditionally.
func (h *baseHandler) AcceptSession(ctx context.Context, s *core.Session, req AcceptSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	h.registry.RemovePendingSession(s.ID)

	if req.MediaStream != nil {
		if err := h.attachOutgoing(s, req.MediaStream); err != nil {
			return err
		}
	}
	if err := h.transport.NotifyReady(ctx, s); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to signal session accepted",
			"sessionId", s.ID).WithCause(err)
	}
	log.Info().Str("module", "sessions").
		Str("sessionId", string(s.ID)).
		Str("sessionType", string(s.Type)).
		Msg("session accepted")
	return nil
}

// attachOutgoing adds every track of the stream to the peer connection and
// records the track references on the session.
func (h *baseHandler) attachOutgoing(s *core.Session, stream *core.MediaStream) error {
	for _, t := range stream.Tracks {
		if _, err := s.PC.AddTrack(t); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to add outgoing track",
				"sessionId", s.ID, "trackId", t.ID(), "kind", t.Kind()).WithCause(err)
		}
		switch t.Kind() {
		case domain.TrackKindAudio:
			s.AudioTrack = t
		case domain.TrackKindVideo:
			s.VideoTrack = t
		}
	}
	return nil
}

// EndSession terminates through the transport and waits for its confirmation.
// Ending an already-ended session is a no-op.
func (h *baseHandler) EndSession(ctx context.Context, s *core.Session) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.Ended {
		log.Debug().Str("module", "sessions").Str("sessionId", string(s.ID)).
			Msg("end requested for already-ended session")
		return nil
	}
	if err := h.transport.Terminate(ctx, s); err != nil {
		return domain.NewCallError(domain.ErrSession, "failed to terminate session",
			"sessionId", s.ID).WithCause(err)
	}
	if err := h.transport.AwaitTerminated(ctx, s); err != nil {
		return domain.NewCallError(domain.ErrSession, "session did not report terminated",
			"sessionId", s.ID).WithCause(err)
	}
	s.Ended = true
	s.Participant = nil
	return nil
}

// UpdateOutgoingMedia replaces the outgoing track(s) with new device
// selections. An Any target picks any available device of that kind; an
// unrequested kind is left unchanged.
func (h *baseHandler) UpdateOutgoingMedia(ctx context.Context, s *core.Session, update domain.MediaUpdate) error {
	if h.disabled {
		return h.errDisabled()
	}
	if !update.Audio.Requested() && !update.Video.Requested() {
		return domain.NewCallError(domain.ErrInvalidOptions, "no media kind requested",
			"sessionId", s.ID)
	}
	stream, err := h.media.AcquireMedia(ctx, core.MediaRequest{
		Audio: update.Audio,
		Video: update.Video,
	})
	if err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to acquire replacement media",
			"sessionId", s.ID).WithCause(err)
	}
	for _, t := range stream.Tracks {
		if err := h.swapTrack(s, t); err != nil {
			return err
		}
	}
	return nil
}

// swapTrack replaces the first sender of the track's kind, or adds the track
// when the session has no sender of that kind yet. The displaced track is
// stopped.
func (h *baseHandler) swapTrack(s *core.Session, t core.Track) error {
	for _, sn := range s.PC.Senders() {
		old := sn.Track()
		if old == nil || old.Kind() != t.Kind() {
			continue
		}
		if s.ScreenTrack != nil && old.ID() == s.ScreenTrack.ID() {
			continue
		}
		if err := sn.ReplaceTrack(t); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to replace outgoing track",
				"sessionId", s.ID, "kind", t.Kind()).WithCause(err)
		}
		old.Stop()
		h.recordTrack(s, t)
		return nil
	}
	if _, err := s.PC.AddTrack(t); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to add outgoing track",
			"sessionId", s.ID, "kind", t.Kind()).WithCause(err)
	}
	h.recordTrack(s, t)
	return nil
}

func (h *baseHandler) recordTrack(s *core.Session, t core.Track) {
	switch t.Kind() {
	case domain.TrackKindAudio:
		s.AudioTrack = t
	case domain.TrackKindVideo:
		s.VideoTrack = t
	}
}

// UpdateOutputDevice re-points the session's output rendering. Sessions
// without an output attachment, or platforms without output selection, are
// left alone.
func (h *baseHandler) UpdateOutputDevice(_ context.Context, s *core.Session, target domain.DeviceTarget) error {
	if h.disabled {
		return h.errDisabled()
	}
	if !h.media.SupportsOutputSelection() || s.Output == nil {
		return nil
	}
	id := target.ID()
	if target.Any() {
		outputs := h.media.Devices(domain.DeviceKindAudioOutput)
		if len(outputs) == 0 {
			log.Warn().Str("module", "sessions").Str("sessionId", string(s.ID)).
				Msg("no output devices available")
			return nil
		}
		id = outputs[0].ID
	}
	if err := s.Output.SetSinkID(id); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to update output device",
			"sessionId", s.ID, "deviceId", id).WithCause(err)
	}
	return nil
}

// SetAudioMute toggles the local outgoing audio track. Handlers whose
// transport represents mute differently override this.
func (h *baseHandler) SetAudioMute(_ context.Context, s *core.Session, req MuteRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.AudioTrack != nil {
		s.AudioTrack.SetEnabled(!req.Mute)
	}
	return nil
}

// SetVideoMute toggles the local outgoing video track.
func (h *baseHandler) SetVideoMute(_ context.Context, s *core.Session, req MuteRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.VideoTrack != nil {
		s.VideoTrack.SetEnabled(!req.Mute)
	}
	return nil
}

// HandleConversationUpdate is a no-op by default.
func (h *baseHandler) HandleConversationUpdate(context.Context, *core.Session, domain.ConversationUpdate) {
}

// resolveParticipant lazily fetches and caches the conversation participant
// record for the local user. Multiple matches narrow to connected state; if
// that does not yield exactly one record the upstream data shape is broken
// and the error is not retryable.
func (h *baseHandler) resolveParticipant(ctx context.Context, s *core.Session) (*domain.Participant, error) {
	if s.Participant != nil {
		return s.Participant, nil
	}
	participants, err := h.api.Participants(ctx, s.ConversationID)
	if err != nil {
		return nil, domain.NewCallError(domain.ErrGeneric, "failed to fetch conversation participants",
			"conversationId", s.ConversationID, "sessionId", s.ID).WithCause(err)
	}
	var mine []domain.Participant
	for _, p := range participants {
		if p.UserID == h.userID {
			mine = append(mine, p)
		}
	}
	if len(mine) > 1 {
		var connected []domain.Participant
		for _, p := range mine {
			if p.State == domain.ParticipantStateConnected {
				connected = append(connected, p)
			}
		}
		mine = connected
	}
	if len(mine) != 1 {
		return nil, domain.NewCallError(domain.ErrGeneric, "could not resolve a single participant for user",
			"conversationId", s.ConversationID, "sessionId", s.ID,
			"userId", h.userID, "matches", len(mine))
	}
	p := mine[0]
	s.Participant = &p
	return s.Participant, nil
}

// patchParticipant resolves the local participant and applies patch to the
// backing conversation record.
func (h *baseHandler) patchParticipant(ctx context.Context, s *core.Session, patch domain.ParticipantPatch) error {
	p, err := h.resolveParticipant(ctx, s)
	if err != nil {
		return err
	}
	if err := h.api.PatchParticipant(ctx, s.ConversationID, p.ID, patch); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to patch participant",
			"conversationId", s.ConversationID, "participantId", p.ID).WithCause(err)
	}
	return nil
}
