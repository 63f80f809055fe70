package rtc

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// localTrack wraps a pion sample track with the device label and enabled
// state the orchestration core needs. Pion tracks carry neither.
type localTrack struct {
	sample  *webrtc.TrackLocalStaticSample
	kind    domain.TrackKind
	label   string
	enabled atomic.Bool
	stopped atomic.Bool
}

func newLocalTrack(kind domain.TrackKind, label string) (*localTrack, error) {
	codec := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}
	if kind == domain.TrackKindVideo {
		codec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}
	}
	sample, err := webrtc.NewTrackLocalStaticSample(codec, uuid.NewString(), uuid.NewString())
	if err != nil {
		return nil, err
	}
	t := &localTrack{sample: sample, kind: kind, label: label}
	t.enabled.Store(true)
	return t, nil
}

func (t *localTrack) ID() string             { return t.sample.ID() }
func (t *localTrack) Kind() domain.TrackKind { return t.kind }
func (t *localTrack) Label() string          { return t.label }
func (t *localTrack) Enabled() bool          { return t.enabled.Load() }
func (t *localTrack) SetEnabled(v bool)      { t.enabled.Store(v) }
func (t *localTrack) Stop()                  { t.stopped.Store(true) }

// remoteTrack wraps an incoming pion track.
type remoteTrack struct {
	track *webrtc.TrackRemote
}

func (t *remoteTrack) ID() string { return t.track.ID() }

func (t *remoteTrack) Kind() domain.TrackKind {
	if t.track.Kind() == webrtc.RTPCodecTypeVideo {
		return domain.TrackKindVideo
	}
	return domain.TrackKindAudio
}

func (t *remoteTrack) Label() string   { return t.track.StreamID() }
func (t *remoteTrack) Enabled() bool   { return true }
func (t *remoteTrack) SetEnabled(bool) {}
func (t *remoteTrack) Stop()           {}
