// upload.go - Streaming upload handler for POST /upload.
package server

import (
	"errors"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// uploadChunkSize is the copy buffer used when streaming request bodies to
// disk. The payload is never held in memory as a whole.
const uploadChunkSize = 1 << 20 // 1 MiB

// uploadResp is the JSON body returned after a successful upload. Field
// names are part of the contract with the dashboard's upload page.
type uploadResp struct {
	Filename      string  `json:"filename"`
	TempPath      string  `json:"temp_path"`
	FileExtension string  `json:"file_extension"`
	SizeMB        float64 `json:"size_mb"`
	ContentType   string  `json:"content_type"`
}

// handleUpload accepts a multipart upload (field name "file") and streams it
// into the spool directory.
//
// Ordering matters here: the cooldown check happens before any body part is
// read, and the cooldown is recorded only once the artifact is fully on
// disk, so rejected and failed uploads never consume the client's slot.
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	client := getClientIP(r)
	now := time.Now()

	if !s.cooldown.allow(client, now) {
		metricUploadRejectsTotal.WithLabelValues(rejectRateLimited).Inc()
		writeError(w, http.StatusTooManyRequests, "Too many uploads. Please wait.")
		return
	}

	part, err := filePart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer func() { _ = part.Close() }()

	origName := part.FileName()
	declared := part.Header.Get("Content-Type")

	safeName, err := sanitizeFilename(origName)
	if err != nil {
		metricUploadRejectsTotal.WithLabelValues(rejectInvalidFilename).Inc()
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	dst, dstPath, err := s.spool.Create(safeName)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("service=upload rid=%s msg=%q err=%v", rid, "create_failed", err)
		metricUploadRejectsTotal.WithLabelValues(rejectInternal).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	written, err := copyWithCeiling(dst, part, s.cfg.MaxUploadBytes)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Never leave a partial artifact behind.
		_ = os.Remove(dstPath)

		var tooLarge *TooLargeError
		if errors.As(err, &tooLarge) {
			metricUploadRejectsTotal.WithLabelValues(rejectTooLarge).Inc()
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
			return
		}

		rid := RequestIDFromContext(r.Context())
		log.Printf("service=upload rid=%s msg=%q path=%s err=%v", rid, "stream_failed", dstPath, err)
		metricUploadRejectsTotal.WithLabelValues(rejectInternal).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cooldown.record(client, now)
	metricUploadsTotal.Inc()
	metricUploadBytesTotal.Add(float64(written))

	ext := strings.ToLower(filepath.Ext(dstPath))
	writeJSON(w, http.StatusOK, uploadResp{
		Filename:      origName,
		TempPath:      dstPath,
		FileExtension: ext,
		SizeMB:        roundMB(written),
		ContentType:   contentTypeFor(ext, declared),
	})
}

// filePart walks the multipart body until it finds the "file" field. Using
// the streaming reader keeps large payloads off the heap and out of temp
// files.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.New("expected a multipart form body")
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("missing file field")
		}
		if err != nil {
			return nil, errors.New("malformed multipart body")
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

// copyWithCeiling streams src to dst in uploadChunkSize chunks, keeping a
// running total and failing with a *TooLargeError before writing the chunk
// that would push the total past limit.
func copyWithCeiling(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	buf := make([]byte, uploadChunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if written+int64(n) > limit {
				return written, &TooLargeError{Limit: limit}
			}
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// roundMB converts a byte count to mebibytes rounded to 2 decimals, the
// precision the dashboard displays.
func roundMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}
