package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Quit123/PCB-Detection/internal/domain/port"
)

// Hub раздаёт события о ходе обучения подключённым SSE-клиентам и
// хранит последнее событие для опоздавших.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan string]struct{}
	lastEvent string
	lastAt    time.Time

	// Heartbeat удерживает простаивающее соединение открытым.
	Heartbeat time.Duration
}

var _ port.Broadcaster = (*Hub)(nil)

// NewHub создаёт пустой хаб событий.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[chan string]struct{}),
		Heartbeat: 30 * time.Second,
	}
}

// Broadcast рассылает событие всем клиентам и запоминает его.
// Заблокированные клиенты пропускаются, событие им не доставляется.
func (h *Hub) Broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastEvent = message
	h.lastAt = time.Now()
	for ch := range h.clients {
		select {
		case ch <- message:
		default:
		}
	}
}

// LastEvent возвращает последнее разосланное событие и его время.
func (h *Hub) LastEvent() (string, time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastEvent, h.lastAt
}

// ClientCount возвращает число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeSSE держит долгоживущее SSE-соединение до разрыва клиентом.
func (h *Hub) ServeSSE(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ch := make(chan string, 16)
	h.addClient(ch)
	defer h.removeClient(ch)

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message := <-ch:
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", message); err != nil {
				return err
			}
			c.Response().Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprintf(c.Response(), ":\n\n"); err != nil {
				return err
			}
			c.Response().Flush()
		}
	}
}

func (h *Hub) addClient(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
}

func (h *Hub) removeClient(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
	close(ch)
}
