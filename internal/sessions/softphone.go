package sessions

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// softphoneHandler owns voice-only calls on bare user (gjoll) addresses.
type softphoneHandler struct {
	baseHandler

	disableAutoAnswer bool
	autoConnect       bool
}

func (h *softphoneHandler) ShouldHandleSessionByJid(jid domain.Jid) bool {
	return jid.IsSoftphone()
}

// HandlePropose auto-accepts when the proposal asks for it and auto-answer
// is not globally disabled.
func (h *softphoneHandler) HandlePropose(ctx context.Context, pending *domain.PendingSession) error {
	if h.disabled {
		return nil
	}
	if err := h.baseHandler.HandlePropose(ctx, pending); err != nil {
		return err
	}
	if pending.AutoAnswer && !h.disableAutoAnswer {
		return h.ProceedWithSession(ctx, pending)
	}
	return nil
}

// HandleSessionInit auto-connects when the configuration requests it.
func (h *softphoneHandler) HandleSessionInit(ctx context.Context, s *core.Session) error {
	if h.disabled {
		return nil
	}
	if err := h.baseHandler.HandleSessionInit(ctx, s); err != nil {
		return err
	}
	if h.autoConnect {
		return h.AcceptSession(ctx, s, AcceptSessionRequest{SessionID: s.ID})
	}
	return nil
}

// StartSession dials out by creating a conversation call through the REST
// collaborator. The inbound propose/init for the new conversation follows on
// the signaling transport.
func (h *softphoneHandler) StartSession(ctx context.Context, req StartSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.PhoneNumber == "" {
		return domain.NewCallError(domain.ErrInvalidOptions, "phone number is required to start a softphone session")
	}
	conversationID, err := h.api.CreateCall(ctx, req.PhoneNumber)
	if err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to create outbound call",
			"phoneNumber", req.PhoneNumber).WithCause(err)
	}
	log.Info().Str("module", "sessions.softphone").
		Str("conversationId", string(conversationID)).
		Msg("outbound call created")
	return nil
}

// AcceptSession acquires an audio-only stream when none was supplied and
// attaches incoming audio to an output binding before delegating to the
// base accept.
func (h *softphoneHandler) AcceptSession(ctx context.Context, s *core.Session, req AcceptSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.MediaStream == nil {
		stream, err := h.media.AcquireMedia(ctx, core.MediaRequest{Audio: domain.AnyDevice()})
		if err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to acquire audio media",
				"sessionId", s.ID).WithCause(err)
		}
		req.MediaStream = stream
	}
	h.attachOutputAudio(s)
	return h.baseHandler.AcceptSession(ctx, s, req)
}

// attachOutputAudio binds the session's incoming audio to an output element.
// When no peer tracks have arrived yet, attachment is deferred to the peer
// track notification.
func (h *softphoneHandler) attachOutputAudio(s *core.Session) {
	out := h.media.NewOutputBinding()
	s.Output = out
	if s.RemoteStream != nil && len(s.RemoteStream.Tracks) > 0 {
		out.AttachStream(s.RemoteStream)
		return
	}
	s.PC.OnRemoteTrack(func(t core.Track) {
		if s.RemoteStream == nil {
			s.RemoteStream = &core.MediaStream{}
		}
		s.RemoteStream.Tracks = append(s.RemoteStream.Tracks, t)
		out.AttachStream(s.RemoteStream)
	})
}

// EndSession first tries the graceful path: patch the conversation
// participant to disconnected while waiting for the transport's terminated
// notification. The first failing leg cancels the other: a failed patch
// means the terminated notification may never arrive, so waiting out the
// other leg could block forever. On graceful failure it falls back to a
// direct transport terminate, and only surfaces an error if the fallback
// fails too.
func (h *softphoneHandler) EndSession(ctx context.Context, s *core.Session) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.Ended {
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		state := domain.ParticipantStateDisconnected
		return h.patchParticipant(ctx, s, domain.ParticipantPatch{State: &state})
	})
	p.Go(func(ctx context.Context) error {
		return h.transport.AwaitTerminated(ctx, s)
	})
	if err := p.Wait(); err != nil {
		log.Warn().Err(err).Str("module", "sessions.softphone").
			Str("sessionId", string(s.ID)).
			Str("conversationId", string(s.ConversationID)).
			Msg("graceful end failed, terminating directly")
		if terr := h.transport.Terminate(ctx, s); terr != nil {
			return domain.NewCallError(domain.ErrSession, "failed to end session",
				"sessionId", s.ID, "conversationId", s.ConversationID).WithCause(terr)
		}
	}
	s.Ended = true
	s.Participant = nil
	return nil
}

// SetAudioMute patches the conversation-side participant record; softphone
// mute is server-side, the local track is untouched.
func (h *softphoneHandler) SetAudioMute(ctx context.Context, s *core.Session, req MuteRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	return h.patchParticipant(ctx, s, domain.ParticipantPatch{Muted: &req.Mute})
}

// SetConversationHeld patches the participant's held flag.
func (h *softphoneHandler) SetConversationHeld(ctx context.Context, s *core.Session, held bool) error {
	if h.disabled {
		return h.errDisabled()
	}
	return h.patchParticipant(ctx, s, domain.ParticipantPatch{Held: &held})
}

// UpdateOutgoingMedia never touches video; softphone sessions carry audio
// only.
func (h *softphoneHandler) UpdateOutgoingMedia(ctx context.Context, s *core.Session, update domain.MediaUpdate) error {
	update.Video = domain.DeviceTarget{}
	if !update.Audio.Requested() {
		return nil
	}
	return h.baseHandler.UpdateOutgoingMedia(ctx, s, update)
}

// HandleConversationUpdate keeps the cached participant in sync. Matching by
// user id also warms the cache when the update arrives before the first REST
// resolve.
func (h *softphoneHandler) HandleConversationUpdate(_ context.Context, s *core.Session, update domain.ConversationUpdate) {
	for i := range update.Participants {
		p := update.Participants[i]
		if p.UserID == h.userID {
			s.Participant = &p
			return
		}
	}
}
