// Package http exposes the local control API of the softphone daemon.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/core"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/sessions"
)

type sessionDTO struct {
	ID             string `json:"id"`
	SessionType    string `json:"sessionType"`
	ConversationID string `json:"conversationId"`
	PeerJid        string `json:"peerJid"`
	Ended          bool   `json:"ended"`
}

type pendingDTO struct {
	ID             string `json:"id"`
	SessionType    string `json:"sessionType"`
	ConversationID string `json:"conversationId"`
	AutoAnswer     bool   `json:"autoAnswer"`
}

func SetupRouter(mode string, manager *sessions.Manager, transport core.SignalingTransport) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	api := r.Group("/api")

	api.GET("/sessions", func(c *gin.Context) {
		out := []sessionDTO{}
		for _, s := range transport.Sessions() {
			out = append(out, sessionDTO{
				ID:             string(s.ID),
				SessionType:    string(s.Type),
				ConversationID: string(s.ConversationID),
				PeerJid:        string(s.PeerJid),
				Ended:          s.Ended,
			})
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/sessions/pending", func(c *gin.Context) {
		out := []pendingDTO{}
		for _, p := range manager.PendingSessions() {
			out = append(out, pendingDTO{
				ID:             string(p.ID),
				SessionType:    string(p.SessionType),
				ConversationID: string(p.ConversationID),
				AutoAnswer:     p.AutoAnswer,
			})
		}
		c.JSON(http.StatusOK, out)
	})

	api.POST("/sessions", func(c *gin.Context) {
		var req struct {
			SessionType string `json:"sessionType"`
			PhoneNumber string `json:"phoneNumber"`
			RoomJid     string `json:"roomJid"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		err := manager.StartSession(c.Request.Context(), sessions.StartSessionRequest{
			SessionType: domain.SessionType(req.SessionType),
			PhoneNumber: req.PhoneNumber,
			RoomJid:     domain.Jid(req.RoomJid),
		})
		respond(c, err)
	})

	api.POST("/sessions/pending/:id/answer", func(c *gin.Context) {
		respond(c, manager.ProceedWithSession(c.Request.Context(), domain.SessionID(c.Param("id"))))
	})

	api.POST("/sessions/pending/:id/reject", func(c *gin.Context) {
		respond(c, manager.RejectPendingSession(c.Request.Context(), domain.SessionID(c.Param("id"))))
	})

	api.POST("/sessions/:id/accept", func(c *gin.Context) {
		respond(c, manager.AcceptSession(c.Request.Context(), sessions.AcceptSessionRequest{
			SessionID: domain.SessionID(c.Param("id")),
		}))
	})

	api.POST("/sessions/:id/end", func(c *gin.Context) {
		respond(c, manager.EndSession(c.Request.Context(), sessions.EndSessionRequest{
			SessionID: domain.SessionID(c.Param("id")),
		}))
	})

	api.POST("/sessions/:id/mute", func(c *gin.Context) {
		var req struct {
			Kind string `json:"kind"`
			Mute bool   `json:"mute"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		id := domain.SessionID(c.Param("id"))
		mute := sessions.MuteRequest{Mute: req.Mute}
		var err error
		switch req.Kind {
		case "video":
			err = manager.SetVideoMute(c.Request.Context(), id, mute)
		default:
			err = manager.SetAudioMute(c.Request.Context(), id, mute)
		}
		respond(c, err)
	})

	api.POST("/sessions/:id/hold", func(c *gin.Context) {
		var req struct {
			Held bool `json:"held"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		respond(c, manager.SetConversationHeld(c.Request.Context(), domain.SessionID(c.Param("id")), req.Held))
	})

	api.POST("/sessions/:id/screenshare/start", func(c *gin.Context) {
		respond(c, manager.StartScreenShare(c.Request.Context(), domain.SessionID(c.Param("id"))))
	})

	api.POST("/sessions/:id/screenshare/stop", func(c *gin.Context) {
		respond(c, manager.StopScreenShare(c.Request.Context(), domain.SessionID(c.Param("id"))))
	})

	api.POST("/devices/validate", func(c *gin.Context) {
		respond(c, manager.ValidateOutgoingMediaTracks(c.Request.Context()))
	})

	api.POST("/devices/output", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"deviceId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		target := domain.AnyDevice()
		if req.DeviceID != "" {
			target = domain.DeviceByID(req.DeviceID)
		}
		respond(c, manager.UpdateOutputDeviceForAllSessions(c.Request.Context(), target))
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, domain.ErrInvalidOptions):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSession):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
