// Package storage owns the on-disk directory tree and the
// staging-to-permanent promotion protocol. Grounded on the StorageService
// seam (storage_interface.go, internal/services/minio_service.go)
// reshaped for a local filesystem: promotion needs same-filesystem atomic
// renames between tempRoot and storageRoot, a guarantee an object-store
// backend like MinIO cannot give (see DESIGN.md).
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Layout owns the temp and storage roots. tempRoot and storageRoot must be
// siblings under a common parent so that Promote's renames stay on one
// filesystem.
type Layout struct {
	storageRoot string
	tempRoot    string
}

// New returns a Layout rooted at storageRoot/tempRoot, creating both if
// they do not already exist.
func New(storageRoot, tempRoot string) (*Layout, error) {
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create storage root: %w", err)
	}
	if err := os.MkdirAll(tempRoot, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create temp root: %w", err)
	}
	return &Layout{storageRoot: storageRoot, tempRoot: tempRoot}, nil
}

// ArchivePath returns the path an uploaded archive's raw bytes are written to.
func (l *Layout) ArchivePath(audioID string) string {
	return filepath.Join(l.tempRoot, audioID+".tar.gz")
}

// CreateStaging creates <tempRoot>/<audioID>/ and returns it. Staging
// directories are created before any bytes are extracted.
func (l *Layout) CreateStaging(audioID string) (string, error) {
	dir := filepath.Join(l.tempRoot, audioID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create staging dir: %w", err)
	}
	return dir, nil
}

// RemoveStaging deletes a staging directory. Callers invoke this on every
// terminal outcome of an upload.
func (l *Layout) RemoveStaging(stagingDir string) error {
	return os.RemoveAll(stagingDir)
}

// RemoveArchive best-effort deletes the uploaded archive file. Callers
// invoke this on every exit path of an upload.
func (l *Layout) RemoveArchive(archivePath string) error {
	return os.Remove(archivePath)
}

// Promote ensures <storageRoot>/<publisherID>/<audioID>/ exists, moves each
// named file out of stagingDir into it via same-filesystem rename, then
// removes stagingDir. The permanent directory is created only once at
// least one file is about to be moved into it.
func (l *Layout) Promote(stagingDir, publisherID, audioID string, keepFiles []string) error {
	if len(keepFiles) == 0 {
		return fmt.Errorf("storage: promote called with no files to keep")
	}

	permanentDir := filepath.Join(l.storageRoot, publisherID, audioID)
	if err := os.MkdirAll(permanentDir, 0o755); err != nil {
		return fmt.Errorf("storage: create permanent dir: %w", err)
	}

	for _, name := range keepFiles {
		src := filepath.Join(stagingDir, name)
		dst := filepath.Join(permanentDir, name)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("storage: promote %s: %w", name, err)
		}
	}

	return os.RemoveAll(stagingDir)
}

// PathFor returns the on-disk path of a single permanent file, used by the
// download endpoint. It does not check for existence.
func (l *Layout) PathFor(publisherID, audioID, filename string) string {
	return filepath.Join(l.storageRoot, publisherID, audioID, filename)
}

// PublisherEntry is one row of a listing: a publisher and its audio ids.
type PublisherEntry struct {
	PublisherID string
	AudioIDs    []string
}

// ListPublishers walks the permanent tree and returns each publisher
// directory with its audio id subdirectories. Missing subtrees encountered
// mid-walk (a promotion racing a concurrent read, or a directory removed
// out from under the walk) are skipped rather than treated as errors.
func (l *Layout) ListPublishers() ([]PublisherEntry, error) {
	pubEntries, err := os.ReadDir(l.storageRoot)
	if err != nil {
		return nil, fmt.Errorf("storage: read storage root: %w", err)
	}

	var out []PublisherEntry
	for _, pe := range pubEntries {
		if !pe.IsDir() {
			continue
		}
		pubDir := filepath.Join(l.storageRoot, pe.Name())
		audioEntries, err := os.ReadDir(pubDir)
		if err != nil {
			// The publisher directory disappeared between listing and read; skip it.
			continue
		}

		var audioIDs []string
		for _, ae := range audioEntries {
			if ae.IsDir() {
				audioIDs = append(audioIDs, ae.Name())
			}
		}
		sort.Strings(audioIDs)

		out = append(out, PublisherEntry{PublisherID: pe.Name(), AudioIDs: audioIDs})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PublisherID < out[j].PublisherID })
	return out, nil
}
