package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

type fakeTrack struct {
	id      string
	kind    domain.TrackKind
	label   string
	enabled bool
	stopped bool
}

func newFakeTrack(id string, kind domain.TrackKind, label string) *fakeTrack {
	return &fakeTrack{id: id, kind: kind, label: label, enabled: true}
}

func (t *fakeTrack) ID() string             { return t.id }
func (t *fakeTrack) Kind() domain.TrackKind { return t.kind }
func (t *fakeTrack) Label() string          { return t.label }
func (t *fakeTrack) Enabled() bool          { return t.enabled }
func (t *fakeTrack) SetEnabled(v bool)      { t.enabled = v }
func (t *fakeTrack) Stop()                  { t.stopped = true }

type fakeSender struct {
	track      core.Track
	replaced   []core.Track
	replaceErr error
}

func (s *fakeSender) Track() core.Track { return s.track }

func (s *fakeSender) ReplaceTrack(t core.Track) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = append(s.replaced, t)
	s.track = t
	return nil
}

type fakePC struct {
	senders  []*fakeSender
	removed  []core.Sender
	onRemote func(core.Track)
	addErr   error
}

func (pc *fakePC) AddTrack(t core.Track) (core.Sender, error) {
	if pc.addErr != nil {
		return nil, pc.addErr
	}
	sn := &fakeSender{track: t}
	pc.senders = append(pc.senders, sn)
	return sn, nil
}

func (pc *fakePC) RemoveTrack(s core.Sender) error {
	for i, sn := range pc.senders {
		if core.Sender(sn) == s {
			pc.senders = append(pc.senders[:i], pc.senders[i+1:]...)
			break
		}
	}
	pc.removed = append(pc.removed, s)
	return nil
}

func (pc *fakePC) Senders() []core.Sender {
	out := make([]core.Sender, len(pc.senders))
	for i, sn := range pc.senders {
		out[i] = sn
	}
	return out
}

func (pc *fakePC) OnRemoteTrack(fn func(core.Track)) { pc.onRemote = fn }

type fakeOutput struct {
	sinkID   string
	attached []*core.MediaStream
	err      error
}

func (o *fakeOutput) SinkID() string { return o.sinkID }

func (o *fakeOutput) SetSinkID(id string) error {
	if o.err != nil {
		return o.err
	}
	o.sinkID = id
	return nil
}

func (o *fakeOutput) AttachStream(s *core.MediaStream) { o.attached = append(o.attached, s) }

type fakeTransport struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*core.Session

	proposed     []domain.Jid
	accepted     []domain.SessionID
	rejected     []domain.SessionID
	readied      []domain.SessionID
	terminated   []domain.SessionID
	awaited      []domain.SessionID
	acceptErr    error
	rejectErr    error
	readyErr     error
	terminateErr error
	awaitErr     error

	// awaitCh, when set, gates AwaitTerminated the way the real transport
	// does: it returns only once the channel closes or ctx is done.
	awaitCh chan struct{}
}

func newFakeTransport(sessions ...*core.Session) *fakeTransport {
	t := &fakeTransport{sessions: make(map[domain.SessionID]*core.Session)}
	for _, s := range sessions {
		t.sessions[s.ID] = s
	}
	return t
}

func (t *fakeTransport) SessionByID(id domain.SessionID) (*core.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	return s, ok
}

func (t *fakeTransport) SessionByConversationID(id domain.ConversationID) (*core.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		if s.ConversationID == id {
			return s, true
		}
	}
	return nil, false
}

func (t *fakeTransport) Sessions() []*core.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*core.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}

func (t *fakeTransport) Propose(_ context.Context, jid domain.Jid, _ domain.ConversationID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.proposed = append(t.proposed, jid)
	return nil
}

func (t *fakeTransport) AcceptPending(_ context.Context, p *domain.PendingSession) error {
	if t.acceptErr != nil {
		return t.acceptErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accepted = append(t.accepted, p.ID)
	return nil
}

func (t *fakeTransport) RejectPending(_ context.Context, p *domain.PendingSession) error {
	if t.rejectErr != nil {
		return t.rejectErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejected = append(t.rejected, p.ID)
	return nil
}

func (t *fakeTransport) NotifyReady(_ context.Context, s *core.Session) error {
	if t.readyErr != nil {
		return t.readyErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readied = append(t.readied, s.ID)
	return nil
}

func (t *fakeTransport) Terminate(_ context.Context, s *core.Session) error {
	if t.terminateErr != nil {
		return t.terminateErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.terminated = append(t.terminated, s.ID)
	return nil
}

func (t *fakeTransport) AwaitTerminated(ctx context.Context, s *core.Session) error {
	if t.awaitErr != nil {
		return t.awaitErr
	}
	if t.awaitCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.awaitCh:
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.awaited = append(t.awaited, s.ID)
	return nil
}

type fakeEngine struct {
	mu             sync.Mutex
	devices        []domain.Device
	supportsOutput bool

	acquired   []core.MediaRequest
	acquireErr error
	displays   int
	displayErr error
	trackSeq   int
}

func (e *fakeEngine) AcquireMedia(_ context.Context, req core.MediaRequest) (*core.MediaStream, error) {
	if e.acquireErr != nil {
		return nil, e.acquireErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acquired = append(e.acquired, req)
	stream := &core.MediaStream{ID: fmt.Sprintf("stream-%d", len(e.acquired))}
	if req.Audio.Requested() {
		stream.Tracks = append(stream.Tracks, e.captureLocked(domain.TrackKindAudio, domain.DeviceKindAudioInput))
	}
	if req.Video.Requested() {
		stream.Tracks = append(stream.Tracks, e.captureLocked(domain.TrackKindVideo, domain.DeviceKindVideoInput))
	}
	return stream, nil
}

func (e *fakeEngine) captureLocked(kind domain.TrackKind, class domain.DeviceKind) core.Track {
	e.trackSeq++
	label := "unknown"
	for _, d := range e.devices {
		if d.Kind == class {
			label = d.Label
			break
		}
	}
	return newFakeTrack(fmt.Sprintf("track-%d", e.trackSeq), kind, label)
}

func (e *fakeEngine) AcquireDisplayMedia(context.Context) (*core.MediaStream, error) {
	if e.displayErr != nil {
		return nil, e.displayErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.displays++
	e.trackSeq++
	t := newFakeTrack(fmt.Sprintf("screen-%d", e.trackSeq), domain.TrackKindVideo, "screen")
	return &core.MediaStream{ID: "display", Tracks: []core.Track{t}}, nil
}

func (e *fakeEngine) Devices(kind domain.DeviceKind) []domain.Device {
	var out []domain.Device
	for _, d := range e.devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (e *fakeEngine) SupportsOutputSelection() bool { return e.supportsOutput }

func (e *fakeEngine) NewPeerConnection() (core.PeerConnection, error) { return &fakePC{}, nil }

func (e *fakeEngine) NewOutputBinding() core.OutputBinding { return &fakeOutput{} }

type patchCall struct {
	conversationID domain.ConversationID
	participantID  string
	patch          domain.ParticipantPatch
}

type fakeAPI struct {
	mu              sync.Mutex
	participants    []domain.Participant
	participantsErr error
	patches         []patchCall
	patchErr        error
	createdCalls    []string
	createErr       error
}

func (a *fakeAPI) CreateCall(_ context.Context, phoneNumber string) (domain.ConversationID, error) {
	if a.createErr != nil {
		return "", a.createErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.createdCalls = append(a.createdCalls, phoneNumber)
	return "conv-new", nil
}

func (a *fakeAPI) Participants(_ context.Context, _ domain.ConversationID) ([]domain.Participant, error) {
	if a.participantsErr != nil {
		return nil, a.participantsErr
	}
	return a.participants, nil
}

func (a *fakeAPI) PatchParticipant(_ context.Context, id domain.ConversationID, participantID string, patch domain.ParticipantPatch) error {
	if a.patchErr != nil {
		return a.patchErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.patches = append(a.patches, patchCall{conversationID: id, participantID: participantID, patch: patch})
	return nil
}

// testEnv bundles a manager with its fakes.
type testEnv struct {
	manager   *Manager
	transport *fakeTransport
	engine    *fakeEngine
	api       *fakeAPI
}

func newTestEnv(cfg Config, sessions ...*core.Session) *testEnv {
	transport := newFakeTransport(sessions...)
	engine := &fakeEngine{
		supportsOutput: true,
		devices: []domain.Device{
			{ID: "mic-1", Label: "Test Microphone", Kind: domain.DeviceKindAudioInput},
			{ID: "cam-1", Label: "Test Camera", Kind: domain.DeviceKindVideoInput},
			{ID: "out-1", Label: "Test Speakers", Kind: domain.DeviceKindAudioOutput},
		},
	}
	api := &fakeAPI{
		participants: []domain.Participant{
			{ID: "part-1", UserID: "user-1", State: domain.ParticipantStateConnected, Purpose: "user"},
		},
	}
	if cfg.UserID == "" {
		cfg.UserID = "user-1"
	}
	m := NewManager(cfg, transport, engine, api)
	return &testEnv{manager: m, transport: transport, engine: engine, api: api}
}

func softphoneSession(id, conv string) *core.Session {
	return &core.Session{
		ID:             domain.SessionID(id),
		SignalingID:    "sig-" + id,
		PeerJid:        "peer@gjoll.example.com",
		ConversationID: domain.ConversationID(conv),
		Type:           domain.SessionTypeSoftphone,
		PC:             &fakePC{},
	}
}

func videoSession(id, conv string) *core.Session {
	return &core.Session{
		ID:             domain.SessionID(id),
		SignalingID:    "sig-" + id,
		PeerJid:        "room@conference.example.com",
		ConversationID: domain.ConversationID(conv),
		Type:           domain.SessionTypeVideo,
		PC:             &fakePC{},
	}
}

func screenShareSession(id, conv string) *core.Session {
	return &core.Session{
		ID:             domain.SessionID(id),
		SignalingID:    "sig-" + id,
		PeerJid:        "acd-room@conference.example.com",
		ConversationID: domain.ConversationID(conv),
		Type:           domain.SessionTypeScreenShare,
		PC:             &fakePC{},
	}
}
