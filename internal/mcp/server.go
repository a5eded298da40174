// ABOUTME: MCP-compatible HTTP server for external agents like Claude Code.
// ABOUTME: Implements Streamable HTTP transport with per-tenant session management.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latchwork/latch-gateway/internal/auth"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// HandlerResolver resolves the protocol handler serving a tenant. The
// registry implements this; sessions carry the tenant so every request is
// routed to its own tenant's tool set.
type HandlerResolver interface {
	HandlerFor(tenantID string) *Handler
}

// session tracks an active MCP client session bound to one tenant.
type session struct {
	id         string
	tenantID   string
	userID     string
	ownerToken string // auth token used to verify session ownership on DELETE
	createdAt  time.Time
}

// sessionStore manages active MCP sessions (in-memory).
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (s *sessionStore) create(tenantID, userID, ownerToken string) *session {
	sess := &session{
		id:         uuid.New().String(),
		tenantID:   tenantID,
		userID:     userID,
		ownerToken: ownerToken,
		createdAt:  time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	return existed
}

// Config holds configuration for the MCP server.
type Config struct {
	Resolver HandlerResolver
	Verifier auth.Verifier
	Logger   *slog.Logger
}

// Server exposes the MCP protocol over HTTP. Authentication happens once at
// initialize; the resulting session pins the tenant for every later request.
type Server struct {
	resolver HandlerResolver
	verifier auth.Verifier
	logger   *slog.Logger
	sessions *sessionStore
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("verifier is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		resolver: cfg.Resolver,
		verifier: cfg.Verifier,
		logger:   logger,
		sessions: newSessionStore(),
	}, nil
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
}

// handleMCP is the single MCP endpoint supporting POST and DELETE per the
// Streamable HTTP transport spec.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		// We don't support server-initiated SSE streams
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDelete terminates a session. Verifies the caller owns the session to
// prevent unauthorized termination.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}

	sess, ok := s.sessions.get(sessionID)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if sess.ownerToken != "" && bearerToken(r) != sess.ownerToken {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	s.sessions.delete(sessionID)
	s.logger.Info("MCP session terminated", "session_id", sessionID, "tenant_id", sess.tenantID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "failed to read request body"))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.writeResponse(w, errorResponse(nil, JSONRPCInvalidRequest, "request body too large"))
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "invalid JSON"))
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeResponse(w, errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version"))
		return
	}

	// Resolve the tenant: initialize authenticates, everything else rides
	// on an existing session.
	var tenantID string
	if req.Method == "initialize" {
		token := bearerToken(r)
		if token == "" {
			s.writeResponse(w, errorResponse(req.ID, JSONRPCInvalidRequest, "authentication required"))
			return
		}
		authCtx, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.Debug("authentication failed", "error", err)
			s.writeResponse(w, errorResponse(req.ID, JSONRPCInvalidRequest, "invalid or expired token"))
			return
		}

		sess := s.sessions.create(authCtx.TenantID, authCtx.UserID, token)
		s.logger.Info("MCP session created",
			"session_id", sess.id,
			"tenant_id", sess.tenantID,
		)
		w.Header().Set("Mcp-Session-Id", sess.id)
		tenantID = sess.tenantID
	} else {
		if sessionID == "" {
			http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
			return
		}
		sess, ok := s.sessions.get(sessionID)
		if !ok {
			// Session expired or invalid - client must re-initialize
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		tenantID = sess.tenantID
	}

	s.logger.Debug("MCP request",
		"method", req.Method,
		"tenant_id", tenantID,
		"session_id", sessionID,
	)

	// Notifications: accept and return HTTP 202 with no body
	if req.IsNotification() {
		if strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Debug("accepted MCP notification", "method", req.Method)
		} else {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	handler := s.resolver.HandlerFor(tenantID)
	s.writeResponse(w, handler.HandleRequest(r.Context(), req))
}

// bearerToken extracts the Bearer token from the Authorization header, or ""
// when absent.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (s *Server) writeResponse(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
