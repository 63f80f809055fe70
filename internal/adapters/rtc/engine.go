// Package rtc implements the media engine over pion/webrtc.
package rtc

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// Engine implements core.MediaEngine.
type Engine struct {
	provider DeviceProvider
	cfg      webrtc.Configuration
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

func NewEngine(provider DeviceProvider, cfg webrtc.Configuration) *Engine {
	return &Engine{provider: provider, cfg: cfg}
}

// AcquireMedia captures one track per requested kind, resolving device
// selectors against the provider inventory.
func (e *Engine) AcquireMedia(_ context.Context, req core.MediaRequest) (*core.MediaStream, error) {
	stream := &core.MediaStream{ID: uuid.NewString()}

	kinds := []struct {
		target domain.DeviceTarget
		kind   domain.TrackKind
		class  domain.DeviceKind
	}{
		{req.Audio, domain.TrackKindAudio, domain.DeviceKindAudioInput},
		{req.Video, domain.TrackKindVideo, domain.DeviceKindVideoInput},
	}
	for _, k := range kinds {
		if !k.target.Requested() {
			continue
		}
		device, err := e.resolveDevice(k.target, k.class)
		if err != nil {
			return nil, err
		}
		t, err := newLocalTrack(k.kind, device.Label)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("module", "rtc").
			Str("kind", string(k.kind)).
			Str("device", device.Label).
			Msg("captured track")
		stream.Tracks = append(stream.Tracks, t)
	}
	return stream, nil
}

// AcquireDisplayMedia captures the screen as a video track.
func (e *Engine) AcquireDisplayMedia(context.Context) (*core.MediaStream, error) {
	t, err := newLocalTrack(domain.TrackKindVideo, "screen")
	if err != nil {
		return nil, err
	}
	return &core.MediaStream{ID: uuid.NewString(), Tracks: []core.Track{t}}, nil
}

func (e *Engine) resolveDevice(target domain.DeviceTarget, class domain.DeviceKind) (domain.Device, error) {
	devices := e.provider.Devices(class)
	if target.Any() {
		if len(devices) == 0 {
			return domain.Device{}, domain.NewCallError(domain.ErrGeneric, "no device available",
				"kind", class)
		}
		return devices[0], nil
	}
	for _, d := range devices {
		if d.ID == target.ID() {
			return d, nil
		}
	}
	return domain.Device{}, domain.NewCallError(domain.ErrGeneric, "device not found",
		"kind", class, "deviceId", target.ID())
}

func (e *Engine) Devices(kind domain.DeviceKind) []domain.Device {
	return e.provider.Devices(kind)
}

func (e *Engine) SupportsOutputSelection() bool {
	return e.provider.SupportsOutputSelection()
}

// NewPeerConnection builds a pion peer connection wrapped in core terms.
func (e *Engine) NewPeerConnection() (core.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(e.cfg)
	if err != nil {
		return nil, err
	}
	conn := &peerConnection{pc: pc}
	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		conn.mu.RLock()
		cb := conn.onRemote
		conn.mu.RUnlock()
		if cb != nil {
			cb(&remoteTrack{track: track})
		}
	})
	return conn, nil
}

func (e *Engine) NewOutputBinding() core.OutputBinding {
	return &outputBinding{provider: e.provider}
}

// peerConnection implements core.PeerConnection. It keeps its own
// sender-to-track mapping because pion senders expose the codec track, not
// the labeled wrapper the core needs back.
type peerConnection struct {
	pc *webrtc.PeerConnection

	mu       sync.RWMutex
	senders  []*sender
	onRemote func(core.Track)
}

func (c *peerConnection) AddTrack(t core.Track) (core.Sender, error) {
	lt, ok := t.(*localTrack)
	if !ok {
		return nil, domain.NewCallError(domain.ErrGeneric, "track was not produced by this engine",
			"trackId", t.ID())
	}
	rtpSender, err := c.pc.AddTrack(lt.sample)
	if err != nil {
		return nil, err
	}
	sn := &sender{pc: c, rtp: rtpSender, track: lt}
	c.mu.Lock()
	c.senders = append(c.senders, sn)
	c.mu.Unlock()
	return sn, nil
}

func (c *peerConnection) RemoveTrack(s core.Sender) error {
	sn, ok := s.(*sender)
	if !ok {
		return domain.NewCallError(domain.ErrGeneric, "sender was not produced by this engine")
	}
	if err := c.pc.RemoveTrack(sn.rtp); err != nil {
		return err
	}
	c.mu.Lock()
	for i, cur := range c.senders {
		if cur == sn {
			c.senders = append(c.senders[:i], c.senders[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *peerConnection) Senders() []core.Sender {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Sender, len(c.senders))
	for i, sn := range c.senders {
		out[i] = sn
	}
	return out
}

func (c *peerConnection) OnRemoteTrack(fn func(core.Track)) {
	c.mu.Lock()
	c.onRemote = fn
	c.mu.Unlock()
}

type sender struct {
	pc  *peerConnection
	rtp *webrtc.RTPSender

	mu    sync.RWMutex
	track *localTrack
}

func (s *sender) Track() core.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.track == nil {
		return nil
	}
	return s.track
}

func (s *sender) ReplaceTrack(t core.Track) error {
	lt, ok := t.(*localTrack)
	if !ok {
		return domain.NewCallError(domain.ErrGeneric, "track was not produced by this engine",
			"trackId", t.ID())
	}
	if err := s.rtp.ReplaceTrack(lt.sample); err != nil {
		return err
	}
	s.mu.Lock()
	s.track = lt
	s.mu.Unlock()
	return nil
}

// outputBinding tracks the selected sink. Actual playout routing is the
// embedding application's concern; the SDK records and validates the choice.
type outputBinding struct {
	provider DeviceProvider

	mu     sync.RWMutex
	sinkID string
	stream *core.MediaStream
}

func (o *outputBinding) SinkID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sinkID
}

func (o *outputBinding) SetSinkID(id string) error {
	if !o.provider.SupportsOutputSelection() {
		return domain.NewCallError(domain.ErrGeneric, "output device selection not supported")
	}
	o.mu.Lock()
	o.sinkID = id
	o.mu.Unlock()
	return nil
}

func (o *outputBinding) AttachStream(s *core.MediaStream) {
	o.mu.Lock()
	o.stream = s
	o.mu.Unlock()
	log.Debug().Str("module", "rtc").Str("streamId", s.ID).Msg("attached output stream")
}
