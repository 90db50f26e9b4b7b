package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/stylusarm/stylus-mcp/internal/eventlog"
	"github.com/stylusarm/stylus-mcp/internal/server"
)

// sessionHeader carries the streaming-transport session identifier.
const sessionHeader = "Mcp-Session-Id"

// maxMessageBytes bounds a single JSON-RPC message body.
const maxMessageBytes = 4 << 20

// Gateway multiplexes protocol sessions over two HTTP transports. Each
// session owns its protocol server instance; all instances share the device
// layers through the factory.
type Gateway struct {
	name      string
	version   string
	newServer func() *server.Server
	events    *eventlog.Log

	mu        sync.Mutex
	streaming map[string]*server.Server
	sse       map[string]*sseSession
}

// sseSession is one legacy persistent-stream client. Responses to its
// /message posts are queued on out and written by the stream goroutine.
type sseSession struct {
	srv  *server.Server
	out  chan []byte
	done chan struct{}
}

// New creates a gateway. newServer is called once per session so every
// client gets an exclusively owned protocol server instance.
func New(name, version string, newServer func() *server.Server, events *eventlog.Log) *Gateway {
	return &Gateway{
		name:      name,
		version:   version,
		newServer: newServer,
		events:    events,
		streaming: make(map[string]*server.Server),
		sse:       make(map[string]*sseSession),
	}
}

// Router builds the HTTP surface.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/mcp", g.handleStreamingPost)
	r.Get("/mcp", g.handleStreamingGet)
	r.Delete("/mcp", g.handleStreamingDelete)

	r.Get("/sse", g.handleSSE)
	r.Post("/message", g.handleMessage)

	r.Get("/health", g.handleHealth)

	return r
}

// === Streaming transport ===

// handleStreamingPost routes one JSON-RPC message. A recognized session id
// reuses that session's server instance; anything else creates a fresh
// session whose id is echoed back in the response header.
func (g *Gateway) handleStreamingPost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	id := r.Header.Get(sessionHeader)

	g.mu.Lock()
	srv, ok := g.streaming[id]
	if !ok {
		id = uuid.NewString()
		srv = g.newServer()
		g.streaming[id] = srv
	}
	g.mu.Unlock()

	if !ok {
		g.events.Info("session", fmt.Sprintf("streaming session %s created", id))
	}

	resp := srv.HandleMessage(r.Context(), body)

	w.Header().Set(sessionHeader, id)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func (g *Gateway) handleStreamingGet(w http.ResponseWriter, r *http.Request) {
	if !g.knownStreaming(r.Header.Get(sessionHeader)) {
		http.Error(w, "unknown or missing session id", http.StatusBadRequest)
		return
	}
	// No server-initiated messages on this transport.
	http.Error(w, "stream not supported", http.StatusMethodNotAllowed)
}

func (g *Gateway) handleStreamingDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)

	g.mu.Lock()
	_, ok := g.streaming[id]
	if ok {
		delete(g.streaming, id)
	}
	g.mu.Unlock()

	if !ok {
		http.Error(w, "unknown or missing session id", http.StatusBadRequest)
		return
	}
	g.events.Info("session", fmt.Sprintf("streaming session %s deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) knownStreaming(id string) bool {
	if id == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.streaming[id]
	return ok
}

// === Legacy persistent-stream transport ===

// handleSSE opens the long-lived stream. The first event tells the client
// where to post follow-up messages; responses flow back as message events.
func (g *Gateway) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	sess := &sseSession{
		srv:  g.newServer(),
		out:  make(chan []byte, 16),
		done: make(chan struct{}),
	}

	g.mu.Lock()
	g.sse[id] = sess
	g.mu.Unlock()
	g.events.Info("session", fmt.Sprintf("sse session %s created", id))

	defer g.closeSSE(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", id)
	flusher.Flush()

	for {
		select {
		case msg := <-sess.out:
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		case <-sess.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleMessage accepts a follow-up message for an open stream session and
// queues the response onto that session's stream.
func (g *Gateway) handleMessage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")

	g.mu.Lock()
	sess, ok := g.sse[id]
	g.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	resp := sess.srv.HandleMessage(r.Context(), body)
	if resp != nil {
		select {
		case sess.out <- resp:
		case <-sess.done:
			// Stream closed while we were handling; drop the response.
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

// closeSSE tears one stream session down. Safe to call twice.
func (g *Gateway) closeSSE(id string) {
	g.mu.Lock()
	sess, ok := g.sse[id]
	if ok {
		delete(g.sse, id)
	}
	g.mu.Unlock()

	if ok {
		close(sess.done)
		g.events.Info("session", fmt.Sprintf("sse session %s closed", id))
	}
}

// === Introspection ===

// SessionCounts reports active sessions per transport kind.
func (g *Gateway) SessionCounts() (streaming, sse int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.streaming), len(g.sse)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	streaming, sse := g.SessionCounts()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":    g.name,
		"version": g.version,
		"sessions": map[string]int{
			"streaming": streaming,
			"sse":       sse,
		},
	})
}

// Shutdown closes every open stream session.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	ids := make([]string, 0, len(g.sse))
	for id := range g.sse {
		ids = append(ids, id)
	}
	g.mu.Unlock()

	for _, id := range ids {
		g.closeSSE(id)
	}
}
