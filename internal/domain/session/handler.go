package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"filedrop/internal/pkg/response"
)

// Broadcaster pushes session lifecycle events to every realtime
// connection attached to a session. Implemented by the relay hub.
type Broadcaster interface {
	SessionClosed(sessionID string)
	FilesUpdated(sessionID string, files []FileInfo)
}

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	registry    *Registry
	store       NamespaceDeleter
	broadcaster Broadcaster
	baseURL     string
}

func NewHandler(registry *Registry, store NamespaceDeleter, broadcaster Broadcaster, baseURL string) *Handler {
	return &Handler{
		registry:    registry,
		store:       store,
		broadcaster: broadcaster,
		baseURL:     baseURL,
	}
}

type createRequest struct {
	Password   string `json:"password"`
	SenderName string `json:"senderName"`
}

// Create registers a new session and returns its token plus a join
// link the sender can hand to receivers.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	s := h.registry.Create(req.Password, req.SenderName)

	response.Success(c, http.StatusCreated, gin.H{
		"sessionId": s.ID,
		"joinLink":  fmt.Sprintf("%s/join/%s", h.baseURL, s.ID),
		"serverUrl": h.baseURL,
	})
}

// Info returns the public snapshot of a session.
func (h *Handler) Info(c *gin.Context) {
	s, err := h.registry.Get(c.Param("sessionId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"sessionId":        s.ID,
		"senderName":       s.SenderName,
		"fileCount":        len(s.Files),
		"connectedClients": s.ConnectedClients,
		"requiresPassword": s.RequiresPassword(),
	})
}

type verifyRequest struct {
	Password string `json:"password"`
}

// Verify checks the shared secret. A session without a password
// verifies for any attempt, including the empty string.
func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	switch err := h.registry.VerifyPassword(c.Param("sessionId"), req.Password); {
	case errors.Is(err, ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	case errors.Is(err, ErrInvalidPassword):
		response.Error(c, http.StatusUnauthorized, "INVALID_PASSWORD", "invalid password")
	default:
		response.Success(c, http.StatusOK, gin.H{"verified": true})
	}
}

// ListFiles returns the session's file list (id, name, size, type).
func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.registry.Files(c.Param("sessionId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// Close ends the session: liveness flips false, every attached
// connection hears session_closed, and the file namespace is removed.
func (h *Handler) Close(c *gin.Context) {
	id := c.Param("sessionId")
	if err := h.registry.Close(id); err != nil {
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}

	h.broadcaster.SessionClosed(id)
	if err := h.store.DeleteNamespace(id); err != nil {
		// Session is already closed; the sweeper retries namespace deletion later.
		response.Error(c, http.StatusInternalServerError, "STORAGE_ERROR", "failed to delete session files")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "session closed"})
}
