package realtime

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mauv0809/openplay/internal/events"
)

// Upgrader is shared by every websocket endpoint. The club screens are
// served from other origins, so any origin is accepted.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and subscribes the connection to the hub.
// An optional events query parameter lists the event names to receive,
// comma separated.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	var names []events.Name
	for _, n := range strings.Split(r.URL.Query().Get("events"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, events.Name(n))
		}
	}

	c := NewClient(uuid.NewString(), conn, h, names)
	h.Register(c)
	go c.WritePump()
	go c.ReadPump()
}
