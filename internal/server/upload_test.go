package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestService builds a stopped Service on a temp spool directory. The
// flood throttle is off so only the behavior under test can reject requests.
func newTestService(t *testing.T, mutate func(*Config)) *Service {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.SpoolDir = t.TempDir()
	cfg.ThrottlePerSec = 0
	if mutate != nil {
		mutate(&cfg)
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

// multipartBody builds a multipart form with one file part.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Writing part failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Closing writer failed: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postUpload(t *testing.T, h http.Handler, remoteAddr, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, "file", filename, "", content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = remoteAddr

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func spoolFileNames(t *testing.T, svc *Service) []string {
	t.Helper()

	entries, err := os.ReadDir(svc.Spool().Dir())
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUpload_Success(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	content := bytes.Repeat([]byte("a"), 5<<20) // 5 MiB
	rr := postUpload(t, h, "10.0.0.1:4000", "data.csv", content)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp uploadResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}

	if resp.Filename != "data.csv" {
		t.Errorf("filename = %q, expected data.csv", resp.Filename)
	}
	if resp.SizeMB != 5.0 {
		t.Errorf("size_mb = %v, expected 5.0", resp.SizeMB)
	}
	if resp.FileExtension != ".csv" {
		t.Errorf("file_extension = %q, expected .csv", resp.FileExtension)
	}
	if resp.ContentType != "text/csv" {
		t.Errorf("content_type = %q, expected text/csv", resp.ContentType)
	}

	info, err := os.Stat(resp.TempPath)
	if err != nil {
		t.Fatalf("File missing at temp_path: %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("Stored %d bytes, expected %d", info.Size(), len(content))
	}
}

func TestUpload_CollisionSuffix(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) { cfg.Cooldown = 0 })
	h := svc.handler()

	existing := filepath.Join(svc.Spool().Dir(), "data.csv")
	originalBytes := []byte("first upload")
	if err := os.WriteFile(existing, originalBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	rr := postUpload(t, h, "10.0.0.1:4000", "data.csv", []byte("second upload"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp uploadResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(resp.TempPath) != "data_1.csv" {
		t.Errorf("Stored as %s, expected data_1.csv", filepath.Base(resp.TempPath))
	}

	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(originalBytes) {
		t.Errorf("Existing file modified: %q", got)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) { cfg.MaxUploadBytes = 1 << 20 })
	h := svc.handler()

	rr := postUpload(t, h, "10.0.0.1:4000", "big.csv", bytes.Repeat([]byte("b"), 2<<20))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "1MB") {
		t.Errorf("Detail should report the ceiling, got %s", rr.Body.String())
	}

	// No partial file may remain.
	if names := spoolFileNames(t, svc); len(names) != 0 {
		t.Errorf("Directory should be empty, found %v", names)
	}
}

func TestUpload_ExactCeiling(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) { cfg.MaxUploadBytes = 1 << 20 })
	h := svc.handler()

	rr := postUpload(t, h, "10.0.0.1:4000", "fits.csv", bytes.Repeat([]byte("c"), 1<<20))

	if rr.Code != http.StatusOK {
		t.Fatalf("Upload of exactly the ceiling should pass, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpload_RateLimited(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) { cfg.Cooldown = 2 * time.Second })
	h := svc.handler()

	first := postUpload(t, h, "10.0.0.1:4000", "a.csv", []byte("a"))
	if first.Code != http.StatusOK {
		t.Fatalf("First upload should pass, got %d", first.Code)
	}

	second := postUpload(t, h, "10.0.0.1:5000", "b.csv", []byte("b"))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("Second upload inside cooldown should be rejected, got %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), "Too many uploads") {
		t.Errorf("Unexpected detail: %s", second.Body.String())
	}

	// The rejected upload must not create a file.
	if names := spoolFileNames(t, svc); len(names) != 1 {
		t.Errorf("Expected 1 stored file, found %v", names)
	}

	// A different client is unaffected.
	other := postUpload(t, h, "10.0.0.2:4000", "c.csv", []byte("c"))
	if other.Code != http.StatusOK {
		t.Errorf("Different client should pass, got %d", other.Code)
	}
}

func TestUpload_FailedUploadKeepsCooldownFree(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) {
		cfg.Cooldown = 2 * time.Second
		cfg.MaxUploadBytes = 1 << 20
	})
	h := svc.handler()

	rr := postUpload(t, h, "10.0.0.1:4000", "big.csv", bytes.Repeat([]byte("b"), 2<<20))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rr.Code)
	}

	// The oversize rejection must not start the client's cooldown.
	rr = postUpload(t, h, "10.0.0.1:4000", "small.csv", []byte("ok"))
	if rr.Code != http.StatusOK {
		t.Errorf("Upload after a failed attempt should pass, got %d", rr.Code)
	}
}

func TestUpload_InvalidFilename(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	tests := []string{"???", "..", "..."}
	for _, name := range tests {
		rr := postUpload(t, h, "10.0.0.1:4000", name, []byte("x"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Filename %q: expected 400, got %d", name, rr.Code)
		}
	}

	if names := spoolFileNames(t, svc); len(names) != 0 {
		t.Errorf("Rejected uploads must not create files, found %v", names)
	}
}

func TestUpload_SanitizesTraversal(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	rr := postUpload(t, h, "10.0.0.1:4000", "../../escape.csv", []byte("x"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp uploadResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(resp.TempPath) != svc.Spool().Dir() {
		t.Errorf("File escaped the spool directory: %s", resp.TempPath)
	}
	if filepath.Base(resp.TempPath) != "escape.csv" {
		t.Errorf("Stored as %s, expected escape.csv", filepath.Base(resp.TempPath))
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	body, contentType := multipartBody(t, "avatar", "x.csv", "", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "10.0.0.1:4000"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("raw bytes"))
	req.RemoteAddr = "10.0.0.1:4000"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestUpload_DeclaredTypeFallback(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	body, contentType := multipartBody(t, "file", "data.parquet", "application/x-parquet", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "10.0.0.1:4000"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp uploadResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ContentType != "application/x-parquet" {
		t.Errorf("content_type = %q, expected declared type", resp.ContentType)
	}
}

func TestUpload_MethodNotAllowed(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	req := httptest.NewRequest(http.MethodDelete, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}

func TestUploadPage(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, expected text/html", ct)
	}
	if !strings.Contains(rr.Body.String(), `name="file"`) {
		t.Error("Page should contain the file input")
	}
}

func TestRootEndpoint(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["message"] != "File Upload Server is running" {
		t.Errorf("Unexpected message: %q", resp["message"])
	}
}

func TestRootEndpoint_UnknownPath(t *testing.T) {
	svc := newTestService(t, nil)
	h := svc.handler()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestCopyWithCeiling(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		limit   int64
		wantErr bool
	}{
		{name: "under limit", size: 100, limit: 200},
		{name: "exactly at limit", size: 200, limit: 200},
		{name: "over limit", size: 201, limit: 200, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst bytes.Buffer
			src := bytes.NewReader(bytes.Repeat([]byte("x"), int(tt.size)))

			n, err := copyWithCeiling(&dst, src, tt.limit)
			if tt.wantErr {
				var tooLarge *TooLargeError
				if err == nil || !strings.Contains(err.Error(), "too large") {
					t.Fatalf("Expected TooLargeError, got %v", err)
				}
				if ok := errors.As(err, &tooLarge); !ok {
					t.Fatalf("Expected *TooLargeError, got %T", err)
				}
				if tooLarge.Limit != tt.limit {
					t.Errorf("Limit = %d, expected %d", tooLarge.Limit, tt.limit)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if n != tt.size {
				t.Errorf("Wrote %d bytes, expected %d", n, tt.size)
			}
		})
	}
}

func TestRoundMB(t *testing.T) {
	tests := []struct {
		bytes int64
		want  float64
	}{
		{5 << 20, 5.0},
		{1536 << 10, 1.5}, // 1.5 MiB
		{1, 0.0},
		{10486, 0.01},
	}

	for _, tt := range tests {
		if got := roundMB(tt.bytes); got != tt.want {
			t.Errorf("roundMB(%d) = %v, expected %v", tt.bytes, got, tt.want)
		}
	}
}
