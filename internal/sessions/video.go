package sessions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// videoHandler owns conference-room video calls.
type videoHandler struct {
	baseHandler
}

func (h *videoHandler) ShouldHandleSessionByJid(jid domain.Jid) bool {
	return jid.IsConference() && !jid.IsAcd()
}

// StartSession proposes a session toward the conference room through the
// signaling transport.
func (h *videoHandler) StartSession(ctx context.Context, req StartSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.RoomJid == "" {
		return domain.NewCallError(domain.ErrInvalidOptions, "room jid is required to start a video session")
	}
	if err := h.transport.Propose(ctx, req.RoomJid, req.ConversationID); err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to propose video session",
			"roomJid", req.RoomJid, "conversationId", req.ConversationID).WithCause(err)
	}
	return nil
}

// AcceptSession acquires camera and microphone when no stream was supplied,
// attaches incoming audio to an output binding, and delegates to the base
// accept.
func (h *videoHandler) AcceptSession(ctx context.Context, s *core.Session, req AcceptSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.MediaStream == nil {
		stream, err := h.media.AcquireMedia(ctx, core.MediaRequest{
			Audio: domain.AnyDevice(),
			Video: domain.AnyDevice(),
		})
		if err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to acquire camera media",
				"sessionId", s.ID).WithCause(err)
		}
		req.MediaStream = stream
	}
	out := h.media.NewOutputBinding()
	s.Output = out
	s.PC.OnRemoteTrack(func(t core.Track) {
		if s.RemoteStream == nil {
			s.RemoteStream = &core.MediaStream{}
		}
		s.RemoteStream.Tracks = append(s.RemoteStream.Tracks, t)
		if t.Kind() == domain.TrackKindAudio {
			out.AttachStream(s.RemoteStream)
		}
	})
	return h.baseHandler.AcceptSession(ctx, s, req)
}

// SetAudioMute mutes locally and mirrors the state to the conversation
// participant so other parties see it.
func (h *videoHandler) SetAudioMute(ctx context.Context, s *core.Session, req MuteRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.AudioTrack != nil {
		s.AudioTrack.SetEnabled(!req.Mute)
	}
	return h.patchParticipant(ctx, s, domain.ParticipantPatch{Muted: &req.Mute})
}

// SetVideoMute disables the outgoing camera track; unmuting with no live
// track re-acquires the camera.
func (h *videoHandler) SetVideoMute(ctx context.Context, s *core.Session, req MuteRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.Mute {
		if s.VideoTrack != nil {
			s.VideoTrack.SetEnabled(false)
		}
		return nil
	}
	if s.VideoTrack == nil {
		target := req.UnmuteDevice
		if !target.Requested() {
			target = domain.AnyDevice()
		}
		return h.UpdateOutgoingMedia(ctx, s, domain.MediaUpdate{Video: target})
	}
	s.VideoTrack.SetEnabled(true)
	return nil
}

// HandleConversationUpdate refreshes the cached participant and re-applies a
// remotely-changed mute state to the local track.
func (h *videoHandler) HandleConversationUpdate(_ context.Context, s *core.Session, update domain.ConversationUpdate) {
	for i := range update.Participants {
		p := update.Participants[i]
		if p.UserID != h.userID {
			continue
		}
		s.Participant = &p
		if s.AudioTrack != nil && s.AudioTrack.Enabled() == p.Muted {
			log.Info().Str("module", "sessions.video").
				Str("sessionId", string(s.ID)).
				Bool("muted", p.Muted).
				Msg("applying remote mute change")
			s.AudioTrack.SetEnabled(!p.Muted)
		}
		return
	}
}
