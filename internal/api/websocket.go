package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/limit-importer/backend/internal/reconcile"
	"go.uber.org/zap"
)

// WebSocket message types for the reconcile channel
const (
	// Client -> Server messages
	MsgTypeReconcileEvent = "reconcile:event"
	MsgTypePing           = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope of every WebSocket message.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error message.
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler serves the reconcile channel. Clients send
// reconcile:event messages whose payload is a wire event
// ({"type":"selectLimit","id":"3"}); every connected client of the import
// receives a state message after each event.
type WebSocketHandler struct {
	imports  ImportManager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new reconcile channel handler
func NewWebSocketHandler(imports ImportManager, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		imports: imports,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger: logger,
	}
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	logger *zap.Logger
}

func (c *wsConn) send(msg WSMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		c.logger.Debug("WebSocket send failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (c *wsConn) sendState(s reconcile.State) {
	c.send(WSMessage{Type: MsgTypeState, Payload: mustJSON(s)})
}

func (c *wsConn) sendError(id, message, code string) {
	c.send(WSMessage{
		Type: MsgTypeError,
		ID:   id,
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

// HandleReconcileSocket upgrades the connection and runs the reconcile
// channel of one import until the client goes away.
func (wsh *WebSocketHandler) HandleReconcileSocket(c echo.Context) error {
	id := c.Param("importId")
	ctrl, err := wsh.imports.Controller(id)
	if err != nil {
		return RespondWithError(c, importError("import", id, err))
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := wsh.logger.With(zap.String("import", id))
	log.Info("Reconcile client connected")

	conn := &wsConn{ws: ws, logger: log}
	conn.send(WSMessage{Type: MsgTypeConnected, ID: id})
	conn.sendState(ctrl.State())

	unsubscribe := ctrl.Subscribe(conn.sendState)
	defer unsubscribe()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Reconcile connection error", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(WSMessage{Type: MsgTypePong, ID: msg.ID})
		case MsgTypeReconcileEvent:
			event, err := reconcile.DecodeEvent(msg.Payload)
			if err != nil {
				conn.sendError(msg.ID, err.Error(), "INVALID_EVENT")
				continue
			}
			wsh.imports.TouchImport(id)
			ctrl.Dispatch(event)
		default:
			conn.sendError(msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	log.Info("Reconcile client disconnected")
	return nil
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
