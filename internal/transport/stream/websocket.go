package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/paddle-arena/internal/api/apierr"
	"github.com/mcoot/paddle-arena/internal/api/request"
	"github.com/mcoot/paddle-arena/internal/model"
)

// Commands is what a game socket can ask of the session layer
type Commands interface {
	RouteMove(ctx context.Context, input model.PaddleMoveInput) error
	MarkReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.GameSession, error)
	Disconnect(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
}

// SocketConfig holds configuration for game WebSocket connections
type SocketConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultSocketConfig returns default WebSocket configuration
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// SocketServer upgrades game connections and runs their read and write pumps
type SocketServer struct {
	upgrader websocket.Upgrader
	config   SocketConfig
	commands Commands
	logger   *slog.Logger
}

// NewSocketServer creates a SocketServer dispatching inbound frames to commands
func NewSocketServer(config SocketConfig, commands Commands, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		commands: commands,
		logger:   logger.With(slog.String("component", "websocket")),
	}
}

// socketConn is one player's live game socket
type socketConn struct {
	conn     *websocket.Conn
	client   *Client
	replies  chan Message
	gameID   model.GameID
	playerID model.PlayerID
	logger   *slog.Logger
}

// Serve upgrades the request and blocks until the socket closes. The player
// is reported disconnected when the socket goes away.
func (s *SocketServer) Serve(w http.ResponseWriter, r *http.Request, hub *Hub, gameID model.GameID, playerID model.PlayerID) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	logger := s.logger.With(
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
	)
	sc := &socketConn{
		conn:     conn,
		client:   NewClient(string(playerID)),
		replies:  make(chan Message, 16),
		gameID:   gameID,
		playerID: playerID,
		logger:   logger,
	}

	if !hub.Register(sc.client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"))
		_ = conn.Close()
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(sc)
	}()

	s.readPump(sc)

	hub.Unregister(sc.client)
	_ = conn.Close()
	<-writerDone

	err = s.commands.Disconnect(context.Background(), gameID, playerID)
	if err != nil && !errors.Is(err, model.ErrUnknownGame) {
		sc.logger.Warn("failed to report disconnect", slog.String("error", err.Error()))
	}
}

// writePump forwards hub messages and replies to the socket and keeps it alive
func (s *SocketServer) writePump(sc *socketConn) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	write := func(messageType int, data []byte) error {
		_ = sc.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		return sc.conn.WriteMessage(messageType, data)
	}

	for {
		select {
		case message, ok := <-sc.client.send:
			if !ok {
				// Hub closed; tell the peer and let the read pump unwind
				_ = write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				_ = sc.conn.Close()
				return
			}
			if err := write(websocket.TextMessage, message.Data); err != nil {
				_ = sc.conn.Close()
				return
			}

		case reply := <-sc.replies:
			if err := write(websocket.TextMessage, reply.Data); err != nil {
				_ = sc.conn.Close()
				return
			}

		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				_ = sc.conn.Close()
				return
			}
		}
	}
}

// readPump decodes inbound frames and applies them in arrival order
func (s *SocketServer) readPump(sc *socketConn) {
	sc.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = sc.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	sc.conn.SetPongHandler(func(string) error {
		return sc.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, data, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				sc.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		_ = sc.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		if err := s.dispatch(sc, data); err != nil {
			sc.reply(errorFrame(err))
		}
	}
}

func (s *SocketServer) dispatch(sc *socketConn, data []byte) error {
	var frame request.SocketFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return apierr.NewInvalidRequestError("malformed frame")
	}

	ctx := context.Background()
	switch frame.Type {
	case request.FrameMove:
		if frame.DeltaTime == nil {
			return apierr.NewInvalidRequestError("delta_time is required")
		}
		return s.commands.RouteMove(ctx, model.PaddleMoveInput{
			GameID:    sc.gameID,
			PlayerID:  sc.playerID,
			Direction: model.Direction(frame.Direction),
			DeltaTime: *frame.DeltaTime,
		})
	case request.FrameReady:
		_, err := s.commands.MarkReady(ctx, sc.gameID, sc.playerID)
		return err
	default:
		return apierr.NewInvalidRequestError("unknown frame type: " + frame.Type)
	}
}

// reply queues a frame for this socket only, dropping it if the peer is slow
func (sc *socketConn) reply(message Message) {
	select {
	case sc.replies <- message:
	default:
		sc.logger.Warn("websocket reply dropped", slog.String("event", message.Event))
	}
}

type errorFramePayload struct {
	Type  string          `json:"type"`
	Error apierr.APIError `json:"error"`
}

func errorFrame(err error) Message {
	data, _ := json.Marshal(errorFramePayload{Type: "error", Error: apierr.FromError(err)})
	return Message{Event: "error", Data: data}
}
