// Package pipeline implements the upload transaction: the state machine
// that glues the format validators, archive extractor, and storage layout
// together. Grounded on the shape of DefaultPayloadService.StorePayload's
// orchestration (payload_service.go), replacing payload classification
// with an archive/validate/promote sequence.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/audiohls/ingest-server/internal/archive"
	"github.com/audiohls/ingest-server/internal/idgen"
	"github.com/audiohls/ingest-server/internal/metrics"
	"github.com/audiohls/ingest-server/internal/storage"
	"github.com/audiohls/ingest-server/internal/validate"
)

// Kind discriminates why an upload was rejected or failed. The HTTP layer
// maps each Kind to a status code; this package never returns an HTTP
// status directly.
type Kind string

const (
	// KindIO is a body write or read I/O failure. Maps to 500.
	KindIO Kind = "io_failure"
	// KindEmpty is a zero-byte or missing uploaded archive. Maps to 400.
	KindEmpty Kind = "empty_upload"
	// KindArchiveInvalid is an unopenable or fully-empty archive. Maps to 400.
	KindArchiveInvalid Kind = "archive_invalid"
	// KindNoValidFiles is an archive whose "kept" set ended up empty. Maps to 400.
	KindNoValidFiles Kind = "no_valid_files"
	// KindPromotionFailed is a storage layout failure while promoting. Maps to 500.
	KindPromotionFailed Kind = "promotion_failed"
)

// Error is the discriminated error value the pipeline returns: validator
// and promotion failures are values, not exceptions.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("pipeline: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

// fileClass identifies which validator applies to an extracted file.
type fileClass string

const (
	classPlaylist        fileClass = "playlist"
	classTransportStream fileClass = "transport_stream"
	classFragmentedMP4   fileClass = "fragmented_mp4"
	classMP4             fileClass = "mp4"
	classUnknown         fileClass = "unknown"
)

func classify(name string) fileClass {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".m3u8":
		return classPlaylist
	case ".ts":
		return classTransportStream
	case ".m4s":
		return classFragmentedMP4
	case ".mp4":
		return classMP4
	default:
		return classUnknown
	}
}

// Deps bundles the collaborators the pipeline needs. Kept as a struct of
// interfaces/concrete types (rather than a god-object) so tests can supply
// a temp-dir Layout and a real logger without a network or TLS stack.
type Deps struct {
	Layout  *storage.Layout
	Log     *logrus.Logger
	Metrics *metrics.Metrics
	IDs     idgen.Generator
}

// Run executes one upload transaction: writes body to a temp archive file,
// extracts it into a fresh staging directory, validates every extracted
// file, and promotes survivors to permanent storage. On success it returns
// the newly minted audio id. On any failure it returns a *Error and leaves
// the storage root untouched; staging directories and the archive file are
// always cleaned up.
func Run(d Deps, publisherID string, body io.Reader) (audioID string, err error) {
	audioID = d.IDs.NewAudioID()
	log := d.Log.WithFields(logrus.Fields{"audio_id": audioID, "publisher_id": publisherID})

	archivePath := d.Layout.ArchivePath(audioID)
	defer func() {
		if rmErr := d.Layout.RemoveArchive(archivePath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.WithError(rmErr).Warn("pipeline: failed to remove archive file")
		}
	}()

	written, writeErr := writeArchive(archivePath, body)
	if writeErr != nil {
		d.observeUpload("io_failure", written)
		return "", fail(KindIO, writeErr)
	}
	if written == 0 {
		d.observeUpload("empty", written)
		return "", fail(KindEmpty, errors.New("uploaded archive is empty"))
	}

	stagingDir, err := d.Layout.CreateStaging(audioID)
	if err != nil {
		d.observeUpload("io_failure", written)
		return "", fail(KindIO, err)
	}
	defer func() {
		if rmErr := d.Layout.RemoveStaging(stagingDir); rmErr != nil {
			log.WithError(rmErr).Warn("pipeline: failed to remove staging dir")
		}
	}()

	extractedAny, extractErr := archive.Extract(d.Log, archivePath, stagingDir)
	if extractErr != nil {
		d.observeUpload("archive_invalid", written)
		return "", fail(KindArchiveInvalid, extractErr)
	}
	if !extractedAny {
		d.observeUpload("archive_invalid", written)
		return "", fail(KindArchiveInvalid, errors.New("archive contained no extractable entries"))
	}

	kept, validateErr := d.validateStaged(stagingDir, log)
	if validateErr != nil {
		d.observeUpload("io_failure", written)
		return "", fail(KindIO, validateErr)
	}
	if len(kept) == 0 {
		d.observeUpload("no_valid_files", written)
		return "", fail(KindNoValidFiles, errors.New("no extracted file passed validation"))
	}

	publisherDir := d.Layout.PathFor(publisherID, "", "")
	_, statErr := os.Stat(publisherDir)
	publisherExisted := statErr == nil
	if err := d.Layout.Promote(stagingDir, publisherID, audioID, kept); err != nil {
		// Undo a partial promotion so the storage root is left as it was.
		_ = os.RemoveAll(d.Layout.PathFor(publisherID, audioID, ""))
		if !publisherExisted {
			_ = os.Remove(publisherDir)
		}
		d.observeUpload("promotion_failed", written)
		return "", fail(KindPromotionFailed, err)
	}

	d.observeUpload("accepted", written)
	log.WithField("files", kept).Info("pipeline: upload promoted")
	return audioID, nil
}

func (d Deps) observeUpload(outcome string, bytesWritten int64) {
	if d.Metrics != nil {
		d.Metrics.ObserveUpload(outcome, bytesWritten)
	}
}

func (d Deps) observeValidation(class fileClass, verdict validate.Verdict) {
	if d.Metrics != nil {
		d.Metrics.ObserveValidation(string(class), verdict.String())
	}
}

// writeArchive streams body to path, truncating any existing file, and
// returns the number of bytes written.
func writeArchive(path string, body io.Reader) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("pipeline: create archive file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, body)
	if err != nil {
		return n, fmt.Errorf("pipeline: write archive file: %w", err)
	}
	return n, nil
}

// validateStaged classifies and validates each immediate child of
// stagingDir. It returns the filenames to keep (accepted or warned);
// rejected files are deleted from stagingDir in place.
func (d Deps) validateStaged(stagingDir string, log *logrus.Entry) ([]string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read staging dir: %w", err)
	}

	var kept []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(stagingDir, name)
		class := classify(name)

		verdict := d.validateOne(class, path)
		d.observeValidation(class, verdict)

		switch verdict {
		case validate.Reject:
			log.WithFields(logrus.Fields{"file": name, "class": class}).Warn("pipeline: rejecting invalid file")
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("pipeline: remove rejected file %s: %w", name, err)
			}
		case validate.Warn:
			log.WithFields(logrus.Fields{"file": name, "class": class}).Warn("pipeline: file retained with warning")
			kept = append(kept, name)
		case validate.Accept:
			kept = append(kept, name)
		}
	}

	return kept, nil
}

// validateOne dispatches path/content to the validator matching class.
func (d Deps) validateOne(class fileClass, path string) validate.Verdict {
	switch class {
	case classPlaylist:
		content, err := os.ReadFile(path)
		if err != nil {
			return validate.Reject
		}
		return validate.Playlist(content)
	case classTransportStream:
		content, err := os.ReadFile(path)
		if err != nil {
			return validate.Reject
		}
		return validate.TransportStream(content)
	case classFragmentedMP4:
		return validate.FragmentedMP4(path)
	case classMP4:
		return validate.MP4()
	default:
		return validate.Reject
	}
}
