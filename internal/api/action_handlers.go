package api

import (
	"net/http"
)

// DeleteActionHandler removes a file or a whole subtree.
func (s *Server) DeleteActionHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())

	path := r.FormValue("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	ts, err := s.core.Delete(username, path)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	writeTimestamp(w, http.StatusOK, ts)
}

func (s *Server) CopyActionHandler(w http.ResponseWriter, r *http.Request) {
	s.transferAction(w, r, false)
}

func (s *Server) MoveActionHandler(w http.ResponseWriter, r *http.Request) {
	s.transferAction(w, r, true)
}

func (s *Server) transferAction(w http.ResponseWriter, r *http.Request, move bool) {
	username := GetUserFromContext(r.Context())

	src := r.FormValue("file_src")
	dst := r.FormValue("file_dest")
	if src == "" || dst == "" {
		http.Error(w, "file_src and file_dest are required", http.StatusBadRequest)
		return
	}

	var ts int64
	var err error
	if move {
		ts, err = s.core.Move(username, src, dst)
	} else {
		ts, err = s.core.Copy(username, src, dst)
	}
	if err != nil {
		respondCoreError(w, err)
		return
	}
	writeTimestamp(w, http.StatusCreated, ts)
}
