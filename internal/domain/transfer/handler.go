package transfer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"filedrop/internal/domain/session"
	"filedrop/internal/pkg/response"
)

// Handler exposes file upload and (range-capable) download over HTTP.
type Handler struct {
	registry    *session.Registry
	store       *Store
	tracker     *Tracker
	broadcaster session.Broadcaster
}

func NewHandler(registry *session.Registry, store *Store, tracker *Tracker, broadcaster session.Broadcaster) *Handler {
	return &Handler{
		registry:    registry,
		store:       store,
		tracker:     tracker,
		broadcaster: broadcaster,
	}
}

// Upload accepts a multipart batch under the "files" field, persists
// each file into the session namespace, appends the records to the
// session and pushes files_updated to attached clients.
func (h *Handler) Upload(c *gin.Context) {
	sessionID := c.Param("sessionId")

	switch err := h.registry.Active(sessionID); {
	case errors.Is(err, session.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	case errors.Is(err, session.ErrSessionInactive):
		response.Error(c, http.StatusBadRequest, "SESSION_INACTIVE", "session is no longer active")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "expected multipart form data")
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		response.Error(c, http.StatusBadRequest, "NO_FILES", ErrEmptyUpload.Error())
		return
	}

	records := make([]session.File, 0, len(uploads))
	for _, fh := range uploads {
		rec, err := h.store.Save(sessionID, fh)
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
			} else {
				response.Error(c, http.StatusInternalServerError, "STORAGE_ERROR", "failed to store file")
			}
			return
		}
		records = append(records, rec)
	}

	updated, err := h.registry.AppendFiles(sessionID, records)
	if err != nil {
		// Session closed between the liveness check and the append.
		if errors.Is(err, session.ErrSessionInactive) {
			response.Error(c, http.StatusBadRequest, "SESSION_INACTIVE", "session is no longer active")
		} else {
			response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		}
		return
	}
	h.broadcaster.FilesUpdated(sessionID, updated)

	summaries := make([]gin.H, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, gin.H{"id": rec.ID, "name": rec.Name, "size": rec.Size})
	}
	response.Success(c, http.StatusCreated, gin.H{
		"message": fmt.Sprintf("uploaded %d file(s)", len(records)),
		"files":   summaries,
	})
}

// Download streams a file back to a receiver, honoring a single
// bytes=start-end range. Every attempt is tracked: started when the
// stream begins, completed on full delivery, failed on a missing disk
// object, a read/write error, or the client disconnecting mid-stream.
func (h *Handler) Download(c *gin.Context) {
	sessionID := c.Param("sessionId")
	fileID := c.Param("fileId")
	clientID := c.Query("clientId")

	f, err := h.registry.LookupFile(sessionID, fileID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	src, err := os.Open(f.StoragePath)
	if err != nil {
		h.tracker.FailedToStart(sessionID, fileID, clientID, "not found on server")
		response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", "file not found on server")
		return
	}
	defer src.Close()

	rangeHeader := c.GetHeader("Range")
	var start, end int64
	partial := rangeHeader != ""
	if partial {
		start, end, err = parseRange(rangeHeader, f.Size)
		if err != nil {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", f.Size))
			response.Error(c, http.StatusRequestedRangeNotSatisfiable, "INVALID_RANGE", err.Error())
			return
		}
	}

	h.tracker.Started(sessionID, fileID, clientID)

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", f.Type)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", url.PathEscape(f.Name)))

	var streamErr error
	if partial {
		length := end - start + 1
		if _, err := src.Seek(start, io.SeekStart); err != nil {
			h.tracker.Failed(sessionID, fileID, clientID, err.Error())
			response.Error(c, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read file")
			return
		}
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, f.Size))
		c.Header("Content-Length", strconv.FormatInt(length, 10))
		c.Status(http.StatusPartialContent)
		_, streamErr = io.CopyN(c.Writer, src, length)
	} else {
		c.Header("Content-Length", strconv.FormatInt(f.Size, 10))
		c.Status(http.StatusOK)
		_, streamErr = io.Copy(c.Writer, src)
	}

	if streamErr != nil {
		h.tracker.Failed(sessionID, fileID, clientID, streamErr.Error())
		return
	}
	h.tracker.Completed(sessionID, fileID, clientID)
}

// parseRange parses a single "bytes=start-end" header. The end offset
// is optional and defaults to the final byte; an end past the object is
// clamped. Suffix and multi-part ranges are not supported.
func parseRange(header string, size int64) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit in %q", header)
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || startStr == "" {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start %q", header)
	}
	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("malformed range end %q", header)
		}
		if end > size-1 {
			end = size - 1
		}
	}
	if start >= size {
		return 0, 0, fmt.Errorf("range start %d beyond size %d", start, size)
	}
	return start, end, nil
}
