package streaming

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (t *Transport) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "streaming").Msg("writePump ctx done")
			return
		case data, ok := <-t.send:
			if !ok {
				log.Warn().Str("module", "streaming").Msg("writePump channel closed")
				return
			}
			if err := t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "streaming").Msg("writePump set deadline")
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "streaming").Msg("writePump write error")
				return
			}
		}
	}
}

func (t *Transport) readPump(ctx context.Context) {
	defer func() {
		log.Info().Str("module", "streaming").Msg("readPump closing")
		t.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "streaming").Msg("readPump ctx done")
			return
		default:
			_, data, err := t.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "streaming").Msg("readPump read error")
				return
			}
			t.handleEvent(ctx, data)
		}
	}
}

func (t *Transport) sendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "streaming").Msg("sendJSON marshal")
		return err
	}
	return t.trySend(b)
}
