package gateway

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/rpc"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// live upgrades GET /api/live?kind=appointments&all=true to a WebSocket
// and pushes a JSON snapshot on every relevant change. The token comes
// from the Authorization header or the access_token query parameter.
func (g *Gateway) live(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if tok := r.URL.Query().Get("access_token"); tok != "" {
			header = "Bearer " + tok
		}
	}
	id, err := middleware.Authenticate(header, g.opts.Secret)
	if err != nil {
		g.writeError(w, err)
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	req := &rpc.WatchRequest{Kind: r.URL.Query().Get("kind"), All: all}

	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     g.allowedOrigin,
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		g.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(middleware.WithIdentity(r.Context(), id))
	defer cancel()

	var mu sync.Mutex
	write := func(typ int, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(typ, data)
	}

	// reader: keeps the deadline fresh on pong and ends the feed when the peer goes away
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := write(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	err = g.h.Subscribe(ctx, req, func(s *rpc.Snapshot) error {
		mu.Lock()
		defer mu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(s)
	})

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err != nil {
		if st, ok := status.FromError(err); ok {
			msg = websocket.FormatCloseMessage(websocket.ClosePolicyViolation, st.Message())
		} else {
			g.log.Debug("live feed ended", zap.Error(err))
		}
	}
	write(websocket.CloseMessage, msg)
}
