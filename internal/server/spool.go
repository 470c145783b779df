// spool.go - Shared upload directory management.
//
// The spool directory is the rendezvous point between this service and the
// dashboard process: uploads land here, the dashboard's file picker reads
// from here, and the retention sweeper reclaims space here.
package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact describes one stored upload. Metadata is always derived from the
// file itself, never cached.
type Artifact struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
	Kind     ContentKind
}

// Spool owns the shared upload directory.
type Spool struct {
	dir string
}

func NewSpool(dir string) *Spool {
	return &Spool{dir: dir}
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string { return s.dir }

// Ensure creates the spool directory if it does not already exist.
func (s *Spool) Ensure() error {
	return os.MkdirAll(s.dir, 0o755)
}

// Create opens a new artifact file for writing. The destination uses
// safeName when it is free; otherwise _1, _2, ... is appended before the
// extension until an unused name is found. Files are created with O_EXCL,
// so concurrent uploads of the same name cannot race onto one path.
func (s *Spool) Create(safeName string) (*os.File, string, error) {
	ext := filepath.Ext(safeName)
	stem := strings.TrimSuffix(safeName, ext)

	name := safeName
	for counter := 1; ; counter++ {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
		name = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
}

// ListRecent returns metadata for every artifact modified within maxAge.
// The listing is recomputed from filesystem state on each call; order
// follows directory enumeration.
func (s *Spool) ListRecent(maxAge time.Duration) ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	artifacts := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // deleted between readdir and stat
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:     e.Name(),
			Path:     filepath.Join(s.dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Kind:     kindForExtension(filepath.Ext(e.Name())),
		})
	}
	return artifacts, nil
}

// PurgeAll deletes every file in the spool directory. Used at service start
// and stop to discard artifacts from another process incarnation. Deletion
// failures are logged and skipped so one stuck file cannot abort the purge.
func (s *Spool) PurgeAll() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("service=spool msg=%q dir=%s err=%v", "purge_list_failed", s.dir, err)
		return 0
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("service=spool msg=%q path=%s err=%v", "purge_failed", path, err)
			continue
		}
		removed++
	}
	return removed
}

// PurgeOlderThan deletes files whose modification time is older than age.
// Per-file failures are logged and skipped; only a failure to enumerate the
// directory is returned.
func (s *Spool) PurgeOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("service=spool msg=%q path=%s err=%v", "purge_failed", path, err)
			continue
		}
		log.Printf("service=spool msg=%q path=%s age=%s", "purged_stale_artifact", path, time.Since(info.ModTime()).Truncate(time.Second))
		removed++
	}
	return removed, nil
}
