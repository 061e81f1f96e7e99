package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"baccarat-backend/internal/models"
	"baccarat-backend/internal/services"
)

const (
	MessageGameCompleted = "GAME_COMPLETED"
	MessagePayout        = "PAYOUT"
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessagePong          = "PONG"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientQueue    = 32
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type   string      `json:"type"`
	Player string      `json:"player,omitempty"`
	GameID string      `json:"game_id,omitempty"`
	Data   interface{} `json:"data"`
}

type Client struct {
	Player string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

func newClient(player string, conn *websocket.Conn) *Client {
	return &Client{
		Player: player,
		conn:   conn,
		send:   make(chan []byte, clientQueue),
		done:   make(chan struct{}),
	}
}

// BalanceSource reads a player's wallet for BALANCE_UPDATE messages.
type BalanceSource func(ctx context.Context, player string) (*models.BalanceResponse, error)

// WebSocketHub fans game events out to each player's open connections.
// Messages for a player are delivered in publish order.
type WebSocketHub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	balances   BalanceSource
	logger     *log.Logger
}

var _ services.EventPublisher = (*WebSocketHub)(nil)

func NewWebSocketHub(balances BalanceSource, logger *log.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, broadcastQueue),
		done:       make(chan struct{}),
		balances:   balances,
		logger:     logger,
	}
}

// Run owns the client table until ctx is done.
func (hub *WebSocketHub) Run(ctx context.Context) error {
	defer close(hub.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range hub.clients {
				for client := range set {
					hub.remove(client)
				}
			}
			return nil

		case client := <-hub.register:
			set, ok := hub.clients[client.Player]
			if !ok {
				set = make(map[*Client]struct{})
				hub.clients[client.Player] = set
			}
			set[client] = struct{}{}
			hub.logger.Debug("client registered", "player", client.Player)

		case client := <-hub.unregister:
			hub.remove(client)

		case message := <-hub.broadcast:
			switch {
			case message.Type == MessageBalanceUpdate && message.Data == nil:
				hub.pushBalance(ctx, message.Player)
			case message.Type == MessagePayout:
				hub.deliver(message)
				hub.pushBalance(ctx, message.Player)
			default:
				hub.deliver(message)
			}
		}
	}
}

func (hub *WebSocketHub) remove(client *Client) {
	set, ok := hub.clients[client.Player]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.done)
	if len(set) == 0 {
		delete(hub.clients, client.Player)
	}
	hub.logger.Debug("client unregistered", "player", client.Player)
}

func (hub *WebSocketHub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		hub.logger.Error("failed to encode message", "type", message.Type, "err", err)
		return
	}
	for client := range hub.clients[message.Player] {
		select {
		case client.send <- data:
		default:
			// Drop slow consumers.
			hub.remove(client)
		}
	}
}

func (hub *WebSocketHub) pushBalance(ctx context.Context, player string) {
	if hub.balances == nil || len(hub.clients[player]) == 0 {
		return
	}
	balance, err := hub.balances(ctx, player)
	if err != nil {
		hub.logger.Warn("failed to read balance for websocket", "player", player, "err", err)
		return
	}
	hub.deliver(&Message{Type: MessageBalanceUpdate, Player: player, Data: balance})
}

func (hub *WebSocketHub) publish(message *Message) {
	select {
	case hub.broadcast <- message:
	default:
		hub.logger.Warn("websocket queue full, dropping message", "type", message.Type, "player", message.Player)
	}
}

func (hub *WebSocketHub) GameCompleted(result *models.GameResult) {
	hub.publish(&Message{
		Type:   MessageGameCompleted,
		Player: result.Player,
		GameID: result.GameID,
		Data:   result,
	})
}

func (hub *WebSocketHub) Payout(player, gameID string, amount sdkmath.Uint) {
	hub.publish(&Message{
		Type:   MessagePayout,
		Player: player,
		GameID: gameID,
		Data: gin.H{
			"amount":    amount,
			"formatted": models.FormatUnits(amount),
		},
	})
}

// BalanceChanged pushes a fresh balance to the player's connections.
func (hub *WebSocketHub) BalanceChanged(player string) {
	hub.publish(&Message{Type: MessageBalanceUpdate, Player: player})
}

type WebSocketHandler struct {
	hub    *WebSocketHub
	logger *log.Logger
}

func NewWebSocketHandler(hub *WebSocketHub, logger *log.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	player := playerFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", "player", player, "err", err)
		return
	}

	client := newClient(player, conn)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}
	go client.writePump()

	h.hub.BalanceChanged(player)
	h.readPump(client)
}

func (h *WebSocketHandler) readPump(client *Client) {
	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "player", client.Player, "err", err)
			}
			return
		}

		if msg.Type == "PING" {
			data, _ := json.Marshal(Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
			select {
			case client.send <- data:
			case <-client.done:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
