package sessions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// screenShareHandler owns ACD screen-share sessions. These carry a display
// capture track and no audio output.
type screenShareHandler struct {
	baseHandler
}

func (h *screenShareHandler) ShouldHandleSessionByJid(jid domain.Jid) bool {
	return jid.IsAcd() && jid.IsConference()
}

// HandlePropose auto-accepts; screen-share proposals are produced by an
// already-confirmed interaction, there is nothing for the user to answer.
func (h *screenShareHandler) HandlePropose(ctx context.Context, pending *domain.PendingSession) error {
	if h.disabled {
		return nil
	}
	if err := h.baseHandler.HandlePropose(ctx, pending); err != nil {
		return err
	}
	if pending.AutoAnswer {
		return h.ProceedWithSession(ctx, pending)
	}
	return nil
}

// AcceptSession captures the display when no stream was supplied and
// delegates to the base accept. No output binding: screen shares render
// nothing locally.
func (h *screenShareHandler) AcceptSession(ctx context.Context, s *core.Session, req AcceptSessionRequest) error {
	if h.disabled {
		return h.errDisabled()
	}
	if req.MediaStream == nil {
		stream, err := h.media.AcquireDisplayMedia(ctx)
		if err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to acquire display media",
				"sessionId", s.ID).WithCause(err)
		}
		req.MediaStream = stream
	}
	for _, t := range req.MediaStream.Tracks {
		if t.Kind() == domain.TrackKindVideo {
			s.ScreenTrack = t
		}
	}
	return h.baseHandler.AcceptSession(ctx, s, req)
}

// StartScreenShare captures the display and attaches it to the session. A
// live camera track is parked and flagged for restore once sharing stops.
func (h *screenShareHandler) StartScreenShare(ctx context.Context, s *core.Session) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.ScreenTrack != nil {
		return nil
	}
	stream, err := h.media.AcquireDisplayMedia(ctx)
	if err != nil {
		return domain.NewCallError(domain.ErrGeneric, "failed to acquire display media",
			"sessionId", s.ID).WithCause(err)
	}
	if s.VideoTrack != nil && s.VideoTrack.Enabled() {
		s.RestoreVideoOnScreenShareEnd = true
		s.VideoTrack.SetEnabled(false)
	}
	for _, t := range stream.TracksOfKind(domain.TrackKindVideo) {
		if _, err := s.PC.AddTrack(t); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to attach screen track",
				"sessionId", s.ID).WithCause(err)
		}
		s.ScreenTrack = t
	}
	log.Info().Str("module", "sessions.screenshare").
		Str("sessionId", string(s.ID)).
		Msg("screen share started")
	return nil
}

// StopScreenShare removes and stops the capture track, restoring the camera
// when it was parked at share start.
func (h *screenShareHandler) StopScreenShare(ctx context.Context, s *core.Session) error {
	if h.disabled {
		return h.errDisabled()
	}
	if s.ScreenTrack == nil {
		return nil
	}
	for _, sn := range s.PC.Senders() {
		t := sn.Track()
		if t == nil || t.ID() != s.ScreenTrack.ID() {
			continue
		}
		if err := s.PC.RemoveTrack(sn); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to remove screen track",
				"sessionId", s.ID).WithCause(err)
		}
	}
	s.ScreenTrack.Stop()
	s.ScreenTrack = nil

	if s.RestoreVideoOnScreenShareEnd {
		s.RestoreVideoOnScreenShareEnd = false
		if s.VideoTrack != nil {
			s.VideoTrack.SetEnabled(true)
		} else if err := h.UpdateOutgoingMedia(ctx, s, domain.MediaUpdate{Video: domain.AnyDevice()}); err != nil {
			return err
		}
	}
	log.Info().Str("module", "sessions.screenshare").
		Str("sessionId", string(s.ID)).
		Msg("screen share stopped")
	return nil
}

// UpdateOutputDevice is a no-op: screen-share sessions have no audio output.
func (h *screenShareHandler) UpdateOutputDevice(context.Context, *core.Session, domain.DeviceTarget) error {
	return nil
}
