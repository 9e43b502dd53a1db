// Package archive streams a tar-over-gzip upload into a staging directory,
// optionally re-decompressing zstd-compressed entries. Grounded on the
// reference's extract_payload/extract_and_validate (original_source/src/
// server.cpp, using libarchive) and on the corpus's own stdlib tar/gzip
// idiom (other_examples/userid7-tar_compression__targz_archiver.go,
// other_examples/zyedidia-eget__archive.go). Per-entry zstd is grounded on
// github.com/klauspost/compress/zstd (i5heu-ouroboros-db/pkg/cas/
// sealPipeline.go).
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// copyBufferSize is the fixed per-chunk buffer used to stream entry bodies
// to disk, keeping memory use flat regardless of entry size.
const copyBufferSize = 8 * 1024

// ErrNotGzip is returned when the archive's outer envelope is not a valid
// gzip stream.
var ErrNotGzip = errors.New("archive: not a gzip stream")

// ErrPathEscape is returned when a tar entry's normalized path would land
// outside the staging directory. This hardens the reference's
// verbatim-path behavior against path-traversal entries.
var ErrPathEscape = errors.New("archive: entry path escapes staging directory")

// Extract streams archivePath (expected to be gzip-compressed POSIX tar)
// into stagingDir, one entry at a time, in archive order. It reports
// whether at least one entry was successfully extracted. Per-entry
// failures are logged and skipped; they never abort the archive. A
// malformed outer envelope is a fatal, returned error.
func Extract(log *logrus.Logger, archivePath, stagingDir string) (extractedAny bool, err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return false, fmt.Errorf("archive: open %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNotGzip, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	buf := make([]byte, copyBufferSize)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).Warn("archive: malformed tar entry, skipping remainder")
			break
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		outPath, err := safeJoin(stagingDir, hdr.Name)
		if err != nil {
			log.WithFields(logrus.Fields{"entry": hdr.Name}).Warn("archive: rejecting path-traversal entry")
			continue
		}

		if err := extractEntry(tr, outPath, hdr.Mode, buf); err != nil {
			log.WithError(err).WithField("entry", hdr.Name).Warn("archive: failed to extract entry, skipping")
			continue
		}
		extractedAny = true

		if strings.EqualFold(filepath.Ext(outPath), ".zst") {
			if err := decompressZstd(outPath); err != nil {
				log.WithError(err).WithField("entry", hdr.Name).Warn("archive: zstd decompression failed, leaving .zst in place")
				continue
			}
		}
	}

	return extractedAny, nil
}

// safeJoin joins name onto root and rejects any result that normalizes
// outside of root.
func safeJoin(root, name string) (string, error) {
	joined := filepath.Join(root, name)
	if joined != root && !strings.HasPrefix(joined, root+string(os.PathSeparator)) {
		return "", ErrPathEscape
	}
	return joined, nil
}

// extractEntry creates outPath with the archive-reported permissions and
// streams the current tar entry's body to it in fixed-size chunks.
func extractEntry(r io.Reader, outPath string, mode int64, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(outPath), err)
	}

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(mode)&0o777)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.CopyBuffer(out, r, buf); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

// decompressZstd decompresses zstPath in place, writing the result to the
// same path with the ".zst" suffix removed, then deletes zstPath.
func decompressZstd(zstPath string) error {
	in, err := os.Open(zstPath)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	outPath := strings.TrimSuffix(zstPath, filepath.Ext(zstPath))
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(zstPath)
}
