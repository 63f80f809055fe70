package core

import (
	"context"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// Track is one local or remote media track. Label carries the human-readable
// name of the device the track was captured from; device reconciliation
// matches tracks to the inventory by label and kind.
type Track interface {
	ID() string
	Kind() domain.TrackKind
	Label() string
	Enabled() bool
	SetEnabled(bool)
	// Stop releases the underlying capture resource.
	Stop()
}

// MediaStream groups tracks acquired together.
type MediaStream struct {
	ID     string
	Tracks []Track
}

// TracksOfKind filters the stream's tracks by kind.
func (s *MediaStream) TracksOfKind(kind domain.TrackKind) []Track {
	var out []Track
	for _, t := range s.Tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// Sender is an outgoing track slot on a peer connection.
type Sender interface {
	Track() Track
	ReplaceTrack(Track) error
}

// PeerConnection is the media-engine view of one session's transport.
type PeerConnection interface {
	Senders() []Sender
	AddTrack(Track) (Sender, error)
	RemoveTrack(Sender) error
	// OnRemoteTrack registers a callback for incoming peer tracks.
	OnRemoteTrack(func(Track))
}

// OutputBinding is the output-audio rendering attachment of a session.
type OutputBinding interface {
	SinkID() string
	SetSinkID(id string) error
	AttachStream(s *MediaStream)
}

// MediaRequest selects which kinds to acquire and from which devices.
// Unrequested kinds are not captured.
type MediaRequest struct {
	Audio domain.DeviceTarget
	Video domain.DeviceTarget
}

// MediaEngine abstracts device capture and enumeration.
type MediaEngine interface {
	// AcquireMedia captures a stream per req. An Any target resolves against
	// the current inventory; a missing specific device is an error.
	AcquireMedia(ctx context.Context, req MediaRequest) (*MediaStream, error)

	// AcquireDisplayMedia captures the screen for sharing.
	AcquireDisplayMedia(ctx context.Context) (*MediaStream, error)

	// Devices returns the current inventory of the given kind.
	Devices(kind domain.DeviceKind) []domain.Device

	// SupportsOutputSelection reports whether the platform can re-point
	// output rendering to a chosen device.
	SupportsOutputSelection() bool

	// NewPeerConnection builds the media transport for one session.
	NewPeerConnection() (PeerConnection, error)

	// NewOutputBinding creates an output attachment for a session.
	NewOutputBinding() OutputBinding
}
