package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware at the HTTP layer.
		return true
	},
}

// ServeWS upgrades the HTTP request and runs the session's read loop on the
// request goroutine. Authentication happens in-band via login_request frames.
func ServeWS(router *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			router.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		session := NewSession(conn, router)
		session.Run(r.Context())
	}
}
