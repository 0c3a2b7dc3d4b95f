package ws

import (
	"log/slog"
	"net/http"
	"time"

	"collab-hub/contract"
	"collab-hub/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Gateway authenticates inbound connections and hands them to the
// connection loop. A missing, invalid or expired credential (or an
// inactive account) is rejected with 401 before the upgrade: no partial
// connection, no session state. On success the verified identity is
// immutable for the connection's lifetime.
type Gateway struct {
	verifier contract.IdentityVerifier
	service  contract.ICollabService
	log      *slog.Logger
	upgrader websocket.Upgrader

	connBufferSize int
	writeWait      time.Duration
	pongWait       time.Duration
}

func NewGateway(log *slog.Logger, verifier contract.IdentityVerifier, service contract.ICollabService,
	connBufferSize int, writeWait, pongWait time.Duration) *Gateway {
	return &Gateway{
		verifier: verifier,
		service:  service,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy belongs to the deployment's reverse proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connBufferSize: connBufferSize,
		writeWait:      writeWait,
		pongWait:       pongWait,
	}
}

// ServeHTTP handles GET /ws?token=<jwt>.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := r.URL.Query().Get("token")
	if credential == "" {
		credential = bearerToken(r)
	}

	participant, err := g.verifier.Verify(r.Context(), credential)
	if err != nil {
		g.log.Info("handshake rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	participant.ConnID = uuid.NewString()

	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		g.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connSink := sink.NewConnSink(g.connBufferSize)
	g.service.Connect(participant, connSink)
	g.log.Info("connection established",
		"conn_id", participant.ConnID, "user_id", participant.UserID, "remote", r.RemoteAddr)

	conn := newConn(wsConn, participant, connSink, g.service, g.log, g.writeWait, g.pongWait)
	conn.run(r.Context())
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
