package relay

import (
	"filedrop/internal/domain/session"
	"filedrop/internal/domain/transfer"
)

// Server-to-client event types.
const (
	EventConnected          = "connected"
	EventClientConnected    = "client_connected"
	EventClientDisconnected = "client_disconnected"
	EventFilesUpdated       = "files_updated"
	EventSessionClosed      = "session_closed"
	EventDownloadStats      = "download_stats"
	EventDownloadFailed     = "download_failed"
)

// Event is a real-time event pushed to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewConnectedEvent greets a freshly attached connection with its id
// and a snapshot of the session it joined.
func NewConnectedEvent(connectionID string, s session.Session, files []session.FileInfo) Event {
	return Event{
		Type: EventConnected,
		Payload: map[string]any{
			"connectionId": connectionID,
			"session": map[string]any{
				"sessionId":        s.ID,
				"senderName":       s.SenderName,
				"connectedClients": s.ConnectedClients,
				"files":            files,
			},
		},
	}
}

func NewClientConnectedEvent(connectionID string, connectedClients int) Event {
	return Event{
		Type: EventClientConnected,
		Payload: map[string]any{
			"connectionId":     connectionID,
			"connectedClients": connectedClients,
		},
	}
}

func NewClientDisconnectedEvent(connectionID string, connectedClients int) Event {
	return Event{
		Type: EventClientDisconnected,
		Payload: map[string]any{
			"connectionId":     connectionID,
			"connectedClients": connectedClients,
		},
	}
}

func NewFilesUpdatedEvent(files []session.FileInfo) Event {
	return Event{
		Type:    EventFilesUpdated,
		Payload: map[string]any{"files": files},
	}
}

func NewSessionClosedEvent(sessionID string) Event {
	return Event{
		Type:    EventSessionClosed,
		Payload: map[string]any{"sessionId": sessionID},
	}
}

func NewDownloadStatsEvent(fileID, clientID string, stat transfer.Stat) Event {
	return Event{
		Type: EventDownloadStats,
		Payload: map[string]any{
			"fileId":   fileID,
			"clientId": clientID,
			"stats":    stat,
		},
	}
}

func NewDownloadFailedEvent(fileID, clientID, reason string, stat transfer.Stat) Event {
	return Event{
		Type: EventDownloadFailed,
		Payload: map[string]any{
			"fileId":   fileID,
			"clientId": clientID,
			"error":    reason,
			"stats":    stat,
		},
	}
}
