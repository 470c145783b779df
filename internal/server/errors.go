// errors.go - Request error taxonomy and JSON rendering.
//
// Failure responses are structured ({"detail": ...}) so the upload page can
// show a message instead of a raw error dump.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidFilename is returned when sanitization leaves nothing usable of
// an uploaded filename.
var ErrInvalidFilename = errors.New("invalid filename")

// TooLargeError reports an upload that exceeded the configured byte ceiling.
type TooLargeError struct {
	Limit int64 // ceiling in bytes
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", e.Limit/(1024*1024))
}

// errorResp matches the {"detail": ...} shape the upload page expects.
type errorResp struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResp{Detail: detail})
}
