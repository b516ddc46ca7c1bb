package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/service"
	"go.uber.org/zap"
)

// RoomWSHandler handles the realtime room connection at /ws/studio. Every
// frame is an Envelope; the first must be join-room, after which the
// connection belongs to a room and the remaining events drive the recording
// state machine. A read error is the implicit disconnect event.
type RoomWSHandler struct {
	hub         *service.RoomHub
	coordinator *service.Coordinator
	maxMsgSize  int64
	logger      *zap.Logger
}

// NewRoomWSHandler creates the room WebSocket handler.
func NewRoomWSHandler(hub *service.RoomHub, coordinator *service.Coordinator, maxMsgSize int64, logger *zap.Logger) *RoomWSHandler {
	return &RoomWSHandler{hub: hub, coordinator: coordinator, maxMsgSize: maxMsgSize, logger: logger}
}

// ServeWS upgrades the request and runs the event loop.
func (h *RoomWSHandler) ServeWS(c *gin.Context) {
	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	h.readPump(c.Request.Context(), conn)
}

func (h *RoomWSHandler) readPump(ctx context.Context, conn *websocket.Conn) {
	var (
		client  *service.Client
		cleanup func()
	)
	defer func() {
		if client != nil {
			h.coordinator.Disconnect(ctx, client)
			cleanup()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		var env service.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("malformed frame", zap.Error(err))
			continue
		}

		if env.Event == service.EventJoinRoom {
			if client != nil {
				continue // already joined
			}
			var p service.JoinRoomPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" || p.PeerID == "" {
				h.logger.Debug("invalid join-room payload", zap.Error(err))
				continue
			}
			client, cleanup = h.hub.Register(p.RoomID, p.PeerID, p.UserID, conn)
			go h.writePump(client)
			h.coordinator.Join(ctx, client)
			continue
		}
		if client == nil {
			h.logger.Debug("event before join-room, ignoring", zap.String("event", env.Event))
			continue
		}
		h.dispatch(ctx, client, env)
	}
}

func (h *RoomWSHandler) dispatch(ctx context.Context, client *service.Client, env service.Envelope) {
	switch env.Event {
	case service.EventHostStartRecording:
		var p service.HostStartPayload
		if env.Data != nil {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				h.logger.Debug("invalid host-start-recording payload", zap.Error(err))
				return
			}
		}
		if p.RoomID == "" {
			p.RoomID = client.RoomID
		}
		if p.HostID == "" {
			p.HostID = client.UserID
		}
		_ = h.coordinator.HostStartRecording(ctx, p.RoomID, p.HostID)

	case service.EventRecordingStarted:
		var p service.RecordingStartedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.FileKey == "" {
			h.logger.Debug("invalid recording-started payload", zap.Error(err))
			return
		}
		if err := h.coordinator.ParticipantRecordingStarted(ctx, client, p.FileKey); err != nil {
			if errors.Is(err, errs.ErrNoActiveSession) {
				h.logger.Info("recording-started with no active session",
					zap.String("room_id", client.RoomID),
					zap.String("user_id", client.UserID))
			}
			// No ack is sent; the client treats the missing ack as a
			// failed start and retries or fails its upload.
		}

	case service.EventHostStopRecording:
		var p service.HostStopPayload
		if env.Data != nil {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				h.logger.Debug("invalid host-stop-recording payload", zap.Error(err))
				return
			}
		}
		if p.RoomID == "" {
			p.RoomID = client.RoomID
		}
		h.coordinator.HostStopRecording(ctx, p.RoomID)

	default:
		h.logger.Debug("unknown event", zap.String("event", env.Event))
	}
}

func (h *RoomWSHandler) writePump(client *service.Client) {
	defer func() {
		_ = client.Conn.Close()
	}()
	for frame := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			break
		}
	}
}
