package session

import (
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"postbox/internal/metrics"
	"postbox/internal/models"
)

// Serve runs one participant through its lifecycle: join, read and dispatch
// inbound frames until the stream ends, then leave and refresh everyone's
// roster. It blocks until the connection is gone.
func Serve(room *Room, profile models.Profile, c *Client, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	id := room.Join(profile, c)
	log = log.With(zap.String("room", room.ID()), zap.Int64("conn", id))

	defer func() {
		room.Leave(id)
		room.BroadcastUserList()
		_ = c.Close()
	}()

	for {
		mt, data, err := c.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read ended", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			metrics.FrameDropped()
			continue
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			metrics.FrameDropped()
			log.Debug("dropping inbound frame", zap.Error(err))
			continue
		}
		Dispatch(room, id, msg)
	}
}
