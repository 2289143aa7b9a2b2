package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alpweather/meteoswiss-mcp/pkg/session"
)

const sessionIDHeader = "Mcp-Session-Id"

// streamableSession couples the HTTP transport with the protocol session it
// was connected as. Closing the protocol session tears down the transport's
// streams, so the registry's Close contract maps onto it.
type streamableSession struct {
	transport *mcp.StreamableServerTransport
	session   *mcp.ServerSession
}

func (s *streamableSession) SessionID() string { return s.transport.SessionID }

func (s *streamableSession) Close() error { return s.session.Close() }

var _ session.Transport = (*streamableSession)(nil)

// StreamableHandler serves the MCP streamable HTTP transport with the
// session registry as its session store, which is what enforces the
// concurrent-session bound and the idle timeout. The SDK's stock handler
// keeps an unbounded session map for the lifetime of the process.
type StreamableHandler struct {
	server   *mcp.Server
	registry *session.Registry
	log      *slog.Logger
}

func NewStreamableHandler(server *mcp.Server, registry *session.Registry, log *slog.Logger) *StreamableHandler {
	return &StreamableHandler{
		server:   server,
		registry: registry,
		log:      log,
	}
}

func (h *StreamableHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Multiple Accept headers are allowed.
	accept := strings.Split(strings.Join(req.Header.Values("Accept"), ","), ",")
	var jsonOK, streamOK bool
	for _, c := range accept {
		switch strings.TrimSpace(c) {
		case "application/json":
			jsonOK = true
		case "text/event-stream":
			streamOK = true
		}
	}

	if req.Method == http.MethodGet {
		if !streamOK {
			http.Error(w, "Accept must contain 'text/event-stream' for GET requests", http.StatusBadRequest)
			return
		}
	} else if !jsonOK || !streamOK {
		http.Error(w, "Accept must contain both 'application/json' and 'text/event-stream'", http.StatusBadRequest)
		return
	}

	var sess *streamableSession
	if id := req.Header.Get(sessionIDHeader); id != "" {
		// Get refreshes the idle window.
		tracked, ok := h.registry.Get(id)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		sess, ok = tracked.(*streamableSession)
		if !ok {
			http.Error(w, "session has no HTTP transport", http.StatusInternalServerError)
			return
		}
	}

	if req.Method == http.MethodDelete {
		if sess == nil {
			http.Error(w, "DELETE requires an Mcp-Session-Id header", http.StatusBadRequest)
			return
		}
		// Remove closes the session.
		h.registry.Remove(sess.SessionID())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch req.Method {
	case http.MethodPost, http.MethodGet:
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	if sess == nil {
		t := &mcp.StreamableServerTransport{SessionID: uuid.NewString()}
		ss, err := h.server.Connect(req.Context(), t, nil)
		if err != nil {
			h.log.Error("connecting mcp session", "err", err)
			http.Error(w, "failed connection", http.StatusInternalServerError)
			return
		}
		sess = &streamableSession{transport: t, session: ss}
		if err := h.registry.Add(sess.SessionID(), sess); err != nil {
			_ = ss.Close()
			var capErr *session.ErrCapacityExceeded
			if errors.As(err, &capErr) {
				h.log.Warn("rejecting session", "err", err)
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "failed to register session", http.StatusInternalServerError)
			return
		}
		h.log.Info("session started", "id", sess.SessionID(), "count", h.registry.Len())
	}

	sess.transport.ServeHTTP(w, req)
}
