package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 1 << 30

// SnapshotHandler returns the grouped, timestamped view of the acting
// user's visible files for incremental sync.
func (s *Server) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())

	snap, err := s.core.Snapshot(username)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	filePath := chi.URLParam(r, "*")

	data, entry, err := s.core.Download(username, filePath)
	if err != nil {
		respondCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Content-MD5", entry.MD5)
	w.Write(data)
}

// readUpload pulls the file content and optional client digest out of the
// multipart form shared by create and overwrite.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return nil, "", false
	}

	file, _, err := r.FormFile("file_content")
	if err != nil {
		http.Error(w, "file_content is required", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading uploaded content", http.StatusBadRequest)
		return nil, "", false
	}
	return content, r.FormValue("file_md5"), true
}

// UploadFileHandler creates a new file. Re-uploading an existing path is
// a conflict; overwriting goes through PUT.
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	filePath := chi.URLParam(r, "*")

	content, clientMD5, ok := readUpload(w, r)
	if !ok {
		return
	}

	ts, err := s.core.Upload(username, filePath, content, clientMD5, false)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	writeTimestamp(w, http.StatusCreated, ts)
}

// OverwriteFileHandler updates an existing file in place.
func (s *Server) OverwriteFileHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	filePath := chi.URLParam(r, "*")

	content, clientMD5, ok := readUpload(w, r)
	if !ok {
		return
	}

	ts, err := s.core.Upload(username, filePath, content, clientMD5, true)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	writeTimestamp(w, http.StatusCreated, ts)
}
