package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(bytesDiscard{})
	return log
}

type bytesDiscard struct{}

func (bytesDiscard) Write(p []byte) (int, error) { return len(p), nil }

func buildArchive(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.tar.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("write body %s: %v", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	return path
}

func TestExtractHappyPath(t *testing.T) {
	archivePath := buildArchive(t, map[string][]byte{
		"playlist.m3u8": []byte("#EXTM3U\n"),
		"segment.ts":    {0x47, 0x00},
	})
	stagingDir := t.TempDir()

	extractedAny, err := Extract(discardLogger(), archivePath, stagingDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !extractedAny {
		t.Fatal("Extract reported no entries extracted")
	}

	for _, name := range []string{"playlist.m3u8", "segment.ts"} {
		if _, err := os.Stat(filepath.Join(stagingDir, name)); err != nil {
			t.Errorf("expected %s to be extracted: %v", name, err)
		}
	}
}

func TestSafeJoinNeverEscapesRoot(t *testing.T) {
	root := t.TempDir()
	cases := []string{"../../etc/passwd", "a/../../b", "/etc/shadow", "..", "a/b/../../../c"}
	for _, name := range cases {
		joined, err := safeJoin(root, name)
		if err != nil {
			continue // a rejected traversal attempt is an acceptable outcome
		}
		if joined != root && !bytes.HasPrefix([]byte(joined), []byte(root+string(filepath.Separator))) {
			t.Errorf("safeJoin(%q, %q) = %q, escapes root %q", root, name, joined, root)
		}
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archivePath := buildArchive(t, map[string][]byte{
		"../../etc/passwd": []byte("root:x:0:0"),
		"safe.m3u8":         []byte("#EXTM3U\n"),
	})
	stagingDir := t.TempDir()

	extractedAny, err := Extract(discardLogger(), archivePath, stagingDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !extractedAny {
		t.Fatal("Extract should still extract the safe entry")
	}
	if _, err := os.Stat(filepath.Join(stagingDir, "safe.m3u8")); err != nil {
		t.Errorf("expected safe.m3u8 to be extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stagingDir, "etc", "passwd")); err == nil {
		t.Error("traversal entry should be rejected, not extracted inside the staging dir")
	}

	// The directory holding the test archive is a legitimate sibling of stagingDir.
	archiveDir := filepath.Base(filepath.Dir(archivePath))
	parent := filepath.Dir(stagingDir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatalf("read parent dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(stagingDir) && e.Name() != archiveDir {
			t.Errorf("unexpected sibling entry %q next to staging dir, traversal may have escaped", e.Name())
		}
	}
}

func TestExtractNotGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-gzip.tar.gz")
	if err := os.WriteFile(path, []byte("not actually gzip"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := Extract(discardLogger(), path, t.TempDir())
	if err == nil {
		t.Fatal("expected an error for a non-gzip archive")
	}
}

func TestExtractDecompressesZstdEntries(t *testing.T) {
	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	original := []byte("segment payload bytes")
	if _, err := enc.Write(original); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}

	archivePath := buildArchive(t, map[string][]byte{
		"segment.ts.zst": compressed.Bytes(),
	})
	stagingDir := t.TempDir()

	if _, err := Extract(discardLogger(), archivePath, stagingDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(stagingDir, "segment.ts"))
	if err != nil {
		t.Fatalf("expected decompressed segment.ts: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("decompressed content = %q, want %q", got, original)
	}
	if _, err := os.Stat(filepath.Join(stagingDir, "segment.ts.zst")); err == nil {
		t.Error("expected the .zst file to be removed after decompression")
	}
}
