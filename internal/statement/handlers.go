package statement

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"money-sorter/internal/credential"
)

// maxUploadSize bounds one multipart upload (high-resolution phone
// photos of receipts run large)
const maxUploadSize = int64(50 << 20) // 50MB

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	setCORSHeaders(w)
	writeJSON(w, status, map[string]string{"error": message})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleUploadFiles accepts a multipart batch of statement files and
// drives it through the processing loop. The response carries the
// settled trackers of this batch plus the recomputed summary.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "Upload is too large. Maximum size is 50MB."
		}
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No files were selected. Please choose files to upload.")
		return
	}

	files := make([]UploadedFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening uploaded file", "filename", header.Filename, "error", err)
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Could not read %s", header.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading uploaded file", "filename", header.Filename, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = contentTypeFromName(header.Filename)
		}

		files = append(files, UploadedFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: strings.ToLower(strings.TrimSpace(contentType)),
			Data:        data,
		})
	}

	trackers := s.queue.Submit(r.Context(), files)
	if trackers == nil {
		trackers = []FileTracker{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trackers": trackers,
		"summary":  s.queue.Summary(),
	})
}

// handleListQueue returns the file queue, most recent first
func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trackers":   s.queue.Trackers(),
		"processing": s.queue.IsProcessing(),
	})
}

// handleListStatements returns the session statement collection
func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Statements())
}

// handleSummary returns the recomputed batch summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Summary())
}

// handleNotices drains pending one-shot notices
func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeJSON(w, http.StatusOK, []Notice{})
		return
	}
	writeJSON(w, http.StatusOK, s.notifier.Drain())
}

// handleExportCSV downloads the cross-batch transaction list
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	csv := ExportCSV(s.queue.Transactions())
	filename := fmt.Sprintf("money_sorter_export_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(csv))
}

// handleReset clears the queue and the statement collection
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.queue.Reset()
	if s.notifier != nil {
		s.notifier.Notify(NoticeSuccess, "Ready for new files")
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSession returns the signed-in user
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.LoadUser()
	if err != nil {
		slog.Error("Error loading user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeJSONError(w, http.StatusNotFound, "Not signed in")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleLogin signs a user in and persists the profile
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "A name is required")
		return
	}

	user := &UserProfile{Name: strings.TrimSpace(req.Name), JoinedAt: time.Now()}
	if err := s.store.SaveUser(user); err != nil {
		slog.Error("Error saving user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if s.notifier != nil {
		s.notifier.Notify(NoticeSuccess, fmt.Sprintf("Welcome back, %s", user.Name))
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogout clears the whole workspace: profile, stored key, queue
// and statements
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.queue.Reset()
	if err := s.store.Clear(); err != nil {
		slog.Error("Error clearing session store", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveCredential stores a user-entered extraction API key
func (s *Server) handleSaveCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if credential.Usable(req.APIKey) == "" {
		writeJSONError(w, http.StatusBadRequest, "That does not look like a Gemini API key")
		return
	}
	if err := s.store.SaveAPIKey(strings.TrimSpace(req.APIKey)); err != nil {
		slog.Error("Error saving API key", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// contentTypeFromName infers a MIME type from the file extension when
// the browser omits one
func contentTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
