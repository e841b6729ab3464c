// Package preview streams rendered frames to browser clients over
// websockets, so a display can be watched without panel hardware.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 200 * time.Millisecond

// Server fans one frame stream out to any number of websocket clients.
type Server struct {
	mu sync.RWMutex

	width  int
	height int

	frameID   uint64
	startTime time.Time
	clients   map[*websocket.Conn]bool
}

func NewServer(width, height int) *Server {
	return &Server{
		width:     width,
		height:    height,
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
	}
}

// HandleFramesWS upgrades the request and registers the client for frame
// broadcasts. The client's read side is drained until it disconnects.
func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendGeometry(conn)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"width":    s.width,
		"height":   s.height,
		"clients":  len(s.clients),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendGeometry(conn *websocket.Conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	geo := map[string]int{"w": s.width, "h": s.height}
	b, _ := json.Marshal(geo)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// BroadcastFrame sends one frame's RGB bytes (row-major, 3 bytes per
// pixel) to every connected client. Slow clients are skipped after the
// write timeout rather than stalling the frame loop.
func (s *Server) BroadcastFrame(rgb []byte) {
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	s.mu.Unlock()

	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		W       int    `json:"w"`
		H       int    `json:"h"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{
		T: time.Now().UnixNano(), FrameID: id,
		W: s.width, H: s.height, RGB: rgb,
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// ClientCount reports the number of connected frame clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
