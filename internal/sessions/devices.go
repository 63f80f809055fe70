package sessions

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// mediaSwitch flags which outgoing kinds of one session lost their device.
// Multiple lost tracks of the same kind coalesce into one flag.
type mediaSwitch struct {
	session *core.Session
	audio   bool
	video   bool
}

// ValidateOutgoingMediaTracks reconciles active sessions against the current
// device inventory: sessions whose in-use capture device disappeared are
// re-homed to any remaining device of the kind, or muted when none is left.
// A vanished output device triggers an output update across all sessions.
// All updates run concurrently; one session's failure does not block
// another's.
func (m *Manager) ValidateOutgoingMediaTracks(ctx context.Context) error {
	inventory := map[domain.TrackKind]map[string]bool{
		domain.TrackKindAudio: labelSet(m.media.Devices(domain.DeviceKindAudioInput)),
		domain.TrackKindVideo: labelSet(m.media.Devices(domain.DeviceKindVideoInput)),
	}
	outputs := m.media.Devices(domain.DeviceKindAudioOutput)

	var plan []*mediaSwitch
	outputLost := false
	for _, s := range m.transport.Sessions() {
		sw := m.inspectSession(s, inventory)
		if sw != nil {
			plan = append(plan, sw)
		}
		if !outputLost && m.media.SupportsOutputSelection() && s.Output != nil {
			if sink := s.Output.SinkID(); sink != "" && !containsDeviceID(outputs, sink) {
				// Output selection is a cross-session preference, so one lost
				// sink re-homes every session.
				outputLost = true
			}
		}
	}

	if len(plan) == 0 && !outputLost {
		log.Debug().Str("module", "sessions.devices").Msg("device reconciliation: nothing to do")
		return nil
	}

	hasAudioInput := len(m.media.Devices(domain.DeviceKindAudioInput)) > 0
	hasVideoInput := len(m.media.Devices(domain.DeviceKindVideoInput)) > 0

	p := pool.New().WithErrors()
	for _, sw := range plan {
		if sw.video {
			p.Go(func() error { return m.switchOrMuteVideo(ctx, sw.session, hasVideoInput) })
		}
		if sw.audio {
			p.Go(func() error { return m.switchOrMuteAudio(ctx, sw.session, hasAudioInput) })
		}
	}
	if outputLost {
		p.Go(func() error { return m.UpdateOutputDeviceForAllSessions(ctx, domain.AnyDevice()) })
	}
	return p.Wait()
}

// inspectSession checks every outgoing sender track against the inventory,
// skipping tracks of an active screen capture (those are reconciled by the
// screen-share flow). Returns nil when nothing is missing.
func (m *Manager) inspectSession(s *core.Session, inventory map[domain.TrackKind]map[string]bool) *mediaSwitch {
	sw := &mediaSwitch{session: s}
	for _, sn := range s.PC.Senders() {
		t := sn.Track()
		if t == nil {
			continue
		}
		if s.ScreenTrack != nil && t.ID() == s.ScreenTrack.ID() {
			continue
		}
		labels, ok := inventory[t.Kind()]
		if !ok || labels[t.Label()] {
			continue
		}
		log.Info().Str("module", "sessions.devices").
			Str("sessionId", string(s.ID)).
			Str("kind", string(t.Kind())).
			Str("label", t.Label()).
			Msg("outgoing track lost its device")
		switch t.Kind() {
		case domain.TrackKindAudio:
			sw.audio = true
		case domain.TrackKindVideo:
			sw.video = true
		}
	}
	if !sw.audio && !sw.video {
		return nil
	}
	return sw
}

func (m *Manager) switchOrMuteVideo(ctx context.Context, s *core.Session, hasDevice bool) error {
	handler, err := m.handlerForSession(s)
	if err != nil {
		return err
	}
	if hasDevice {
		return handler.UpdateOutgoingMedia(ctx, s, domain.MediaUpdate{Video: domain.AnyDevice()})
	}
	return handler.SetVideoMute(ctx, s, MuteRequest{Mute: true})
}

// switchOrMuteAudio re-homes the session's audio, or with no device left
// mutes it and removes every audio sender: muting alone does not release a
// track whose hardware is gone.
func (m *Manager) switchOrMuteAudio(ctx context.Context, s *core.Session, hasDevice bool) error {
	handler, err := m.handlerForSession(s)
	if err != nil {
		return err
	}
	if hasDevice {
		return handler.UpdateOutgoingMedia(ctx, s, domain.MediaUpdate{Audio: domain.AnyDevice()})
	}
	if err := handler.SetAudioMute(ctx, s, MuteRequest{Mute: true}); err != nil {
		return err
	}
	for _, sn := range s.PC.Senders() {
		t := sn.Track()
		if t == nil || t.Kind() != domain.TrackKindAudio {
			continue
		}
		t.Stop()
		if err := s.PC.RemoveTrack(sn); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to remove dead audio track",
				"sessionId", s.ID, "trackId", t.ID()).WithCause(err)
		}
	}
	s.AudioTrack = nil
	return nil
}

func labelSet(devices []domain.Device) map[string]bool {
	set := make(map[string]bool, len(devices))
	for _, d := range devices {
		set[d.Label] = true
	}
	return set
}

func containsDeviceID(devices []domain.Device, id string) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}
