// Package preview serves the composited surface over a local websocket so
// the session can be watched in a browser while it runs headless.
package preview

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vixalabs/vixa/internal/logger"
)

const (
	// pushInterval throttles outgoing frames regardless of render rate.
	pushInterval = time.Second / 30

	jpegQuality = 70

	// clientQueue is the per-client backlog; a client that falls this far
	// behind starts dropping frames instead of stalling the render loop.
	clientQueue = 4
)

const indexHTML = `<!doctype html>
<html>
<head><title>vixa preview</title>
<style>body{margin:0;background:#000;display:flex;align-items:center;justify-content:center;height:100vh}img{max-width:100%;max-height:100%}</style>
</head>
<body><img id="frame">
<script>
const img = document.getElementById('frame');
const ws = new WebSocket('ws://' + location.host + '/ws');
ws.binaryType = 'blob';
ws.onmessage = (ev) => {
  const url = URL.createObjectURL(ev.data);
  const old = img.src;
  img.src = url;
  if (old) URL.revokeObjectURL(old);
};
</script>
</body>
</html>`

// Server is the preview endpoint. Frames are pushed in with Push; clients
// come and go over the websocket.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server

	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	lastPush time.Time
}

// New creates a preview server bound to addr once started.
func New(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// The preview binds to loopback; cross-origin pages are fine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexHTML)) //nolint:errcheck
	})
	mux.HandleFunc("/ws", s.handleWS)

	s.server = &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		logger.Infof("Preview available at http://%s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Preview server failed", err)
		}
	}()
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.server.Shutdown(ctx) //nolint:errcheck

	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("Preview upgrade failed: %v", err)
		return
	}

	ch := make(chan []byte, clientQueue)
	s.mu.Lock()
	s.clients[conn] = ch
	n := len(s.clients)
	s.mu.Unlock()
	logger.Debugf("Preview client connected (%d total)", n)

	// Drain client messages so pings/closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()

	go func() {
		for frame := range ch {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if ch, ok := s.clients[conn]; ok {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	conn.Close()
}

// Push encodes and fans a frame out to all clients. Throttled internally;
// slow clients skip frames rather than back-pressure the caller.
func (s *Server) Push(frame *image.RGBA) {
	s.mu.Lock()
	if time.Since(s.lastPush) < pushInterval || len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	s.lastPush = time.Now()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		logger.Debugf("Preview encode failed: %v", err)
		return
	}
	data := buf.Bytes()

	s.mu.Lock()
	for _, ch := range s.clients {
		select {
		case ch <- data:
		default:
		}
	}
	s.mu.Unlock()
}
