// files.go - Read-only artifact listing for the dashboard's file picker.
package server

import (
	"log"
	"net/http"
	"time"
)

type fileInfo struct {
	Name        string    `json:"name"`
	TempPath    string    `json:"temp_path"`
	SizeMB      float64   `json:"size_mb"`
	Modified    time.Time `json:"modified"`
	ContentKind string    `json:"content_kind"`
}

type listFilesResp struct {
	Files []fileInfo `json:"files"`
}

// handleListFiles returns every artifact still inside the retention window.
// GET /files
func (s *Service) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	artifacts, err := s.spool.ListRecent(s.cfg.Retention)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("service=files rid=%s msg=%q err=%v", rid, "list_failed", err)
		writeError(w, http.StatusInternalServerError, "could not list files")
		return
	}

	resp := listFilesResp{Files: make([]fileInfo, 0, len(artifacts))}
	for _, a := range artifacts {
		resp.Files = append(resp.Files, fileInfo{
			Name:        a.Name,
			TempPath:    a.Path,
			SizeMB:      roundMB(a.Size),
			Modified:    a.Modified,
			ContentKind: string(a.Kind),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
