package sessions

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// Config carries the session-orchestration settings of one SDK instance.
type Config struct {
	UserID domain.UserID

	// AllowedSessionTypes lists the enabled types; empty means all. Handlers
	// for other types stay registered but disabled.
	AllowedSessionTypes []domain.SessionType

	// DisableAutoAnswer globally ignores the auto-answer flag on proposals.
	DisableAutoAnswer bool

	// AutoConnectSessions accepts softphone sessions on init without an
	// explicit accept call.
	AutoConnectSessions bool
}

// Manager owns the handler registry and all in-flight pending sessions, and
// routes every inbound lifecycle event to the handler owning the session's
// type. Constructed once per running SDK instance; collaborators hold it by
// reference, never through globals.
type Manager struct {
	mu      sync.RWMutex
	pending map[domain.SessionID]*domain.PendingSession

	handlers []Handler
	byType   map[domain.SessionType]Handler

	transport core.SignalingTransport
	media     core.MediaEngine
}

// NewManager builds the manager and its three session handlers.
func NewManager(cfg Config, transport core.SignalingTransport, media core.MediaEngine, api core.ConversationsAPI) *Manager {
	m := &Manager{
		pending:   make(map[domain.SessionID]*domain.PendingSession),
		byType:    make(map[domain.SessionType]Handler),
		transport: transport,
		media:     media,
	}

	base := func(t domain.SessionType) baseHandler {
		return baseHandler{
			sessionType: t,
			disabled:    !typeAllowed(cfg.AllowedSessionTypes, t),
			userID:      cfg.UserID,
			transport:   transport,
			media:       media,
			api:         api,
			registry:    m,
		}
	}

	m.handlers = []Handler{
		&softphoneHandler{
			baseHandler:       base(domain.SessionTypeSoftphone),
			disableAutoAnswer: cfg.DisableAutoAnswer,
			autoConnect:       cfg.AutoConnectSessions,
		},
		&videoHandler{baseHandler: base(domain.SessionTypeVideo)},
		&screenShareHandler{baseHandler: base(domain.SessionTypeScreenShare)},
	}
	for _, h := range m.handlers {
		m.byType[h.SessionType()] = h
	}
	return m
}

func typeAllowed(allowed []domain.SessionType, t domain.SessionType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// GetSessionHandler resolves the owning handler: by type when it is known,
// otherwise by peer address pattern. No match, or no identifying information
// at all, is a lookup failure.
func (m *Manager) GetSessionHandler(sessionType domain.SessionType, jid domain.Jid) (Handler, error) {
	if sessionType != "" {
		h, ok := m.byType[sessionType]
		if !ok {
			return nil, domain.NewCallError(domain.ErrSession, "no handler for session type",
				"sessionType", sessionType)
		}
		return h, nil
	}
	if jid == "" {
		return nil, domain.NewCallError(domain.ErrSession, "no session type or address to resolve a handler")
	}
	for _, h := range m.handlers {
		if h.ShouldHandleSessionByJid(jid) {
			return h, nil
		}
	}
	return nil, domain.NewCallError(domain.ErrSession, "no handler matched address",
		"jid", jid)
}

func (m *Manager) handlerForSession(s *core.Session) (Handler, error) {
	return m.GetSessionHandler(s.Type, s.PeerJid)
}

// GetPendingSession returns the registered pending entry for id.
func (m *Manager) GetPendingSession(id domain.SessionID) (*domain.PendingSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[id]
	return p, ok
}

// PendingSessions snapshots the pending registry.
func (m *Manager) PendingSessions() []*domain.PendingSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.PendingSession, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p)
	}
	return out
}

// RemovePendingSession drops the entry for id, if any.
func (m *Manager) RemovePendingSession(id domain.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[id]; ok {
		delete(m.pending, id)
		log.Debug().Str("module", "sessions.manager").Str("sessionId", string(id)).
			Msg("removed pending session")
	}
}

// OnPropose registers a pending session and lets the owning handler react.
// Duplicate proposals for an already-pending id are logged and ignored;
// proposals for disabled types are silently dropped.
func (m *Manager) OnPropose(ctx context.Context, info core.ProposeInfo) {
	handler, err := m.GetSessionHandler("", info.FromJid)
	if err != nil {
		log.Error().Err(err).Str("module", "sessions.manager").
			Str("sessionId", string(info.SessionID)).
			Str("fromJid", string(info.FromJid)).
			Msg("propose: no handler for address")
		return
	}
	if handler.Disabled() {
		log.Debug().Str("module", "sessions.manager").
			Str("sessionId", string(info.SessionID)).
			Str("sessionType", string(handler.SessionType())).
			Msg("propose: session type disabled, ignoring")
		return
	}

	m.mu.Lock()
	if _, ok := m.pending[info.SessionID]; ok {
		m.mu.Unlock()
		log.Info().Str("module", "sessions.manager").
			Str("sessionId", string(info.SessionID)).
			Msg("propose: duplicate for pending session, ignoring")
		return
	}
	p := &domain.PendingSession{
		ID:             info.SessionID,
		SessionType:    handler.SessionType(),
		AutoAnswer:     info.AutoAnswer,
		FromJid:        info.FromJid,
		ConversationID: info.ConversationID,
		RoomJid:        info.RoomJid,
		FromUserID:     info.FromUserID,
	}
	m.pending[info.SessionID] = p
	m.mu.Unlock()

	if err := handler.HandlePropose(ctx, p); err != nil {
		log.Error().Err(err).Str("module", "sessions.manager").
			Str("sessionId", string(info.SessionID)).
			Msg("propose handler failed")
	}
}

// ProceedWithSession answers the pending proposal with the given id.
func (m *Manager) ProceedWithSession(ctx context.Context, id domain.SessionID) error {
	p, ok := m.GetPendingSession(id)
	if !ok {
		return domain.NewCallError(domain.ErrSession, "no pending session",
			"sessionId", id)
	}
	handler, err := m.GetSessionHandler(p.SessionType, "")
	if err != nil {
		return err
	}
	return handler.ProceedWithSession(ctx, p)
}

// RejectPendingSession declines the pending proposal with the given id.
func (m *Manager) RejectPendingSession(ctx context.Context, id domain.SessionID) error {
	p, ok := m.GetPendingSession(id)
	if !ok {
		return domain.NewCallError(domain.ErrSession, "no pending session",
			"sessionId", id)
	}
	handler, err := m.GetSessionHandler(p.SessionType, "")
	if err != nil {
		return err
	}
	return handler.RejectPendingSession(ctx, p)
}

// OnSessionInit stamps the session's type and delegates to the owning
// handler's init hook.
func (m *Manager) OnSessionInit(ctx context.Context, s *core.Session) {
	handler, err := m.handlerForSession(s)
	if err != nil {
		log.Error().Err(err).Str("module", "sessions.manager").
			Str("sessionId", string(s.ID)).
			Str("peerJid", string(s.PeerJid)).
			Msg("session init: no handler for session")
		return
	}
	if handler.Disabled() {
		log.Debug().Str("module", "sessions.manager").
			Str("sessionId", string(s.ID)).
			Str("sessionType", string(handler.SessionType())).
			Msg("session init: session type disabled, ignoring")
		return
	}
	s.Type = handler.SessionType()
	if err := handler.HandleSessionInit(ctx, s); err != nil {
		log.Error().Err(err).Str("module", "sessions.manager").
			Str("sessionId", string(s.ID)).
			Msg("session init handler failed")
	}
}

// StartSession starts an outbound session of the requested type.
func (m *Manager) StartSession(ctx context.Context, req StartSessionRequest) error {
	if req.SessionType == "" {
		return domain.NewCallError(domain.ErrInvalidOptions, "session type is required to start a session")
	}
	handler, err := m.GetSessionHandler(req.SessionType, "")
	if err != nil {
		return err
	}
	return handler.StartSession(ctx, req)
}

// AcceptSession answers the live session with the given id.
func (m *Manager) AcceptSession(ctx context.Context, req AcceptSessionRequest) error {
	if req.SessionID == "" {
		return domain.NewCallError(domain.ErrInvalidOptions, "session id is required to accept a session")
	}
	s, handler, err := m.resolveSession(req.SessionID, "")
	if err != nil {
		return err
	}
	return handler.AcceptSession(ctx, s, req)
}

// EndSession ends the live session identified by id or conversation id.
func (m *Manager) EndSession(ctx context.Context, req EndSessionRequest) error {
	if req.SessionID == "" && req.ConversationID == "" {
		return domain.NewCallError(domain.ErrInvalidOptions, "session id or conversation id is required to end a session")
	}
	s, handler, err := m.resolveSession(req.SessionID, req.ConversationID)
	if err != nil {
		return err
	}
	return handler.EndSession(ctx, s)
}

// SetAudioMute updates the session's audio mute state.
func (m *Manager) SetAudioMute(ctx context.Context, id domain.SessionID, req MuteRequest) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	return handler.SetAudioMute(ctx, s, req)
}

// SetVideoMute updates the session's video mute state.
func (m *Manager) SetVideoMute(ctx context.Context, id domain.SessionID, req MuteRequest) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	return handler.SetVideoMute(ctx, s, req)
}

// UpdateOutgoingMedia replaces the outgoing device(s) of one session.
func (m *Manager) UpdateOutgoingMedia(ctx context.Context, id domain.SessionID, update domain.MediaUpdate) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	return handler.UpdateOutgoingMedia(ctx, s, update)
}

// SetConversationHeld places the softphone session on or off hold.
func (m *Manager) SetConversationHeld(ctx context.Context, id domain.SessionID, held bool) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	sp, ok := handler.(*softphoneHandler)
	if !ok {
		return domain.NewCallError(domain.ErrInvalidOptions, "hold is only supported on softphone sessions",
			"sessionId", id, "sessionType", s.Type)
	}
	return sp.SetConversationHeld(ctx, s, held)
}

// StartScreenShare begins display capture on the given screen-share session.
func (m *Manager) StartScreenShare(ctx context.Context, id domain.SessionID) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	ss, ok := handler.(*screenShareHandler)
	if !ok {
		return domain.NewCallError(domain.ErrInvalidOptions, "session is not a screen-share session",
			"sessionId", id, "sessionType", s.Type)
	}
	return ss.StartScreenShare(ctx, s)
}

// StopScreenShare stops display capture on the given screen-share session.
func (m *Manager) StopScreenShare(ctx context.Context, id domain.SessionID) error {
	s, handler, err := m.resolveSession(id, "")
	if err != nil {
		return err
	}
	ss, ok := handler.(*screenShareHandler)
	if !ok {
		return domain.NewCallError(domain.ErrInvalidOptions, "session is not a screen-share session",
			"sessionId", id, "sessionType", s.Type)
	}
	return ss.StopScreenShare(ctx, s)
}

// resolveSession looks up the live session by id (or conversation id) and
// its owning handler.
func (m *Manager) resolveSession(id domain.SessionID, conversationID domain.ConversationID) (*core.Session, Handler, error) {
	var (
		s  *core.Session
		ok bool
	)
	if id != "" {
		s, ok = m.transport.SessionByID(id)
	} else {
		s, ok = m.transport.SessionByConversationID(conversationID)
	}
	if !ok {
		return nil, nil, domain.NewCallError(domain.ErrSession, "session not found",
			"sessionId", id, "conversationId", conversationID)
	}
	handler, err := m.handlerForSession(s)
	if err != nil {
		return nil, nil, err
	}
	return s, handler, nil
}

// HandleConversationUpdate fans the update out to every live session on the
// updated conversation whose handler is enabled.
func (m *Manager) HandleConversationUpdate(ctx context.Context, update domain.ConversationUpdate) {
	for _, s := range m.transport.Sessions() {
		if s.ConversationID != update.ConversationID {
			continue
		}
		handler, err := m.handlerForSession(s)
		if err != nil {
			log.Error().Err(err).Str("module", "sessions.manager").
				Str("sessionId", string(s.ID)).
				Msg("conversation update: no handler for session")
			continue
		}
		if handler.Disabled() {
			continue
		}
		handler.HandleConversationUpdate(ctx, s, update)
	}
}

// UpdateOutgoingMediaForAllSessions applies the device selection to every
// active session concurrently, aggregating failures.
func (m *Manager) UpdateOutgoingMediaForAllSessions(ctx context.Context, update domain.MediaUpdate) error {
	p := pool.New().WithErrors()
	for _, s := range m.transport.Sessions() {
		p.Go(func() error {
			handler, err := m.handlerForSession(s)
			if err != nil {
				return err
			}
			return handler.UpdateOutgoingMedia(ctx, s, update)
		})
	}
	return p.Wait()
}

// UpdateOutputDeviceForAllSessions re-points output rendering on every
// active session except screen shares, which have no audio output. A literal
// device id not present in the inventory changes nothing.
func (m *Manager) UpdateOutputDeviceForAllSessions(ctx context.Context, target domain.DeviceTarget) error {
	if !target.Any() && target.Requested() {
		if !m.outputDeviceExists(target.ID()) {
			log.Warn().Str("module", "sessions.manager").
				Str("deviceId", target.ID()).
				Msg("requested output device not found, keeping current devices")
			return nil
		}
	}
	p := pool.New().WithErrors()
	for _, s := range m.transport.Sessions() {
		if s.Type == domain.SessionTypeScreenShare {
			continue
		}
		p.Go(func() error {
			handler, err := m.handlerForSession(s)
			if err != nil {
				return err
			}
			return handler.UpdateOutputDevice(ctx, s, target)
		})
	}
	return p.Wait()
}

func (m *Manager) outputDeviceExists(id string) bool {
	for _, d := range m.media.Devices(domain.DeviceKindAudioOutput) {
		if d.ID == id {
			return true
		}
	}
	return false
}
