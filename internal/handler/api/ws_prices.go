package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"PerpDash/internal/usecase"
	xlogger "PerpDash/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteWait = 5 * time.Second

// PricesBroadcaster pushes every market's live price to connected websocket clients.
type PricesBroadcaster struct {
	prices   *usecase.MarketPricesUseCase
	logger   *xlogger.Logger
	interval time.Duration

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func NewPricesBroadcaster(logger *xlogger.Logger, prices *usecase.MarketPricesUseCase, interval time.Duration) *PricesBroadcaster {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PricesBroadcaster{
		prices:   prices,
		logger:   logger,
		interval: interval,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (b *PricesBroadcaster) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/prices", b.Handle)
}

// Handle upgrades the connection and sends the current prices right away.
func (b *PricesBroadcaster) Handle(c echo.Context) error {
	conn, err := b.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		b.logger.Warn("websocket upgrade error", xlogger.Error(err))
		return nil
	}

	msg, err := json.Marshal(b.prices.All(c.Request().Context()))
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			return nil
		}
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	n := len(b.clients)
	b.mu.Unlock()
	b.logger.Debug("websocket client connected", xlogger.Int("clients", n))

	// read loop only detects disconnects
	go func() {
		defer b.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// Broadcast sends one message to every client, dropping the ones that fail.
// Calls must not overlap.
func (b *PricesBroadcaster) Broadcast(res *usecase.PricesResult) {
	msg, err := json.Marshal(res)
	if err != nil {
		b.logger.Error("failed to marshal prices", xlogger.Error(err))
		return
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	// writes happen unlocked so a slow client does not block Handle or Clients
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Debug("websocket write error", xlogger.Error(err))
			b.remove(c)
		}
	}
}

// Run polls prices every interval while at least one client is connected, until ctx is done.
func (b *PricesBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case <-ticker.C:
			if b.Clients() == 0 {
				continue
			}
			b.Broadcast(b.prices.All(ctx))
		}
	}
}

// Clients returns the number of connected clients.
func (b *PricesBroadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *PricesBroadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

func (b *PricesBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		c.Close()
		delete(b.clients, c)
	}
}
