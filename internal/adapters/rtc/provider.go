package rtc

import (
	"sync"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// DeviceProvider supplies the media-device inventory. Hardware enumeration
// is platform-specific; the engine only depends on this interface.
type DeviceProvider interface {
	Devices(kind domain.DeviceKind) []domain.Device
	SupportsOutputSelection() bool
}

// StaticProvider is an in-memory inventory. The demo binary seeds it; tests
// mutate it to simulate device loss.
type StaticProvider struct {
	mu             sync.RWMutex
	devices        []domain.Device
	supportsOutput bool
}

func NewStaticProvider(devices []domain.Device, supportsOutput bool) *StaticProvider {
	return &StaticProvider{devices: devices, supportsOutput: supportsOutput}
}

func (p *StaticProvider) Devices(kind domain.DeviceKind) []domain.Device {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []domain.Device
	for _, d := range p.devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (p *StaticProvider) SupportsOutputSelection() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.supportsOutput
}

// SetDevices replaces the inventory, e.g. after a devices-changed signal.
func (p *StaticProvider) SetDevices(devices []domain.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = devices
}
