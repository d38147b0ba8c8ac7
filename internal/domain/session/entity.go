package session

import "time"

// Session is a short-lived relay room identified by an 8-character token.
// The password is stored and compared as plaintext on purpose: it is a
// join secret shared out-of-band, not a security boundary, and callers
// rely on the set-once-compare-anytime plaintext contract.
type Session struct {
	ID               string    `json:"sessionId"`
	Password         string    `json:"-"`
	SenderName       string    `json:"senderName"`
	CreatedAt        time.Time `json:"createdAt"`
	Active           bool      `json:"active"`
	Files            []File    `json:"files"`
	ConnectedClients int       `json:"connectedClients"`
}

func (s *Session) RequiresPassword() bool { return s.Password != "" }

// File is an uploaded file owned by its session. Once appended it is
// never mutated; it disappears only with the whole session.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"-"` // absolute on-disk path, never serialized
	Size        int64     `json:"size"`
	Type        string    `json:"type"`
	UploadedAt  time.Time `json:"-"`
}

// FileInfo is the client-facing view of a File (no storage path).
type FileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

func (f File) Info() FileInfo {
	return FileInfo{ID: f.ID, Name: f.Name, Size: f.Size, Type: f.Type}
}

func fileInfos(files []File) []FileInfo {
	infos := make([]FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, f.Info())
	}
	return infos
}
