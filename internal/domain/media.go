package domain

// TrackKind is the media kind of a track or input device.
type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// DeviceKind distinguishes the enumerable device classes.
type DeviceKind string

const (
	DeviceKindAudioInput  DeviceKind = "audioinput"
	DeviceKindVideoInput  DeviceKind = "videoinput"
	DeviceKindAudioOutput DeviceKind = "audiooutput"
)

// Device describes one entry of the media-device inventory.
type Device struct {
	ID    string
	Label string
	Kind  DeviceKind
}

// DeviceTarget is a tri-state device selector for one media kind:
// the zero value leaves the current device unchanged, AnyDevice asks for any
// available device of the kind, DeviceByID requests a specific device.
type DeviceTarget struct {
	requested bool
	id        string
}

// AnyDevice requests any available device of the kind.
func AnyDevice() DeviceTarget { return DeviceTarget{requested: true} }

// DeviceByID requests the device with the given id.
func DeviceByID(id string) DeviceTarget { return DeviceTarget{requested: true, id: id} }

// Requested reports whether this kind should be switched at all.
func (t DeviceTarget) Requested() bool { return t.requested }

// Any reports whether the selector means "pick any available device".
func (t DeviceTarget) Any() bool { return t.requested && t.id == "" }

// ID returns the requested device id, empty for AnyDevice.
func (t DeviceTarget) ID() string { return t.id }

// MediaUpdate carries new outgoing-device selections for a session.
// Unrequested kinds are left untouched.
type MediaUpdate struct {
	Audio DeviceTarget
	Video DeviceTarget
}
