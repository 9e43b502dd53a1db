package validate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlaylist(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Verdict
	}{
		{"marker_at_start", "#EXTM3U\n#EXT-X-VERSION:3\n", Accept},
		{"marker_mid_file", "garbage\nprefix#EXTM3U\nsuffix", Accept},
		{"no_marker", "#EXT-X-VERSION:3\n", Reject},
		{"empty", "", Reject},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Playlist([]byte(c.content)); got != c.want {
				t.Errorf("Playlist(%q) = %v, want %v", c.content, got, c.want)
			}
		})
	}
}

func TestTransportStream(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		want    Verdict
	}{
		{"valid_sync_byte", []byte{0x47, 0x00, 0x00, 0x00}, Accept},
		{"wrong_first_byte", []byte{0x00, 0x47, 0x00, 0x00}, Reject},
		{"empty", []byte{}, Reject},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := TransportStream(c.content); got != c.want {
				t.Errorf("TransportStream(%v) = %v, want %v", c.content, got, c.want)
			}
		})
	}
}

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fragment.m4s")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestFragmentedMP4(t *testing.T) {
	valid := append([]byte{0, 0, 0, 24}, []byte("ftyp")...)
	valid = append(valid, []byte("mp42")...)
	valid = append(valid, []byte("moof")...)
	valid = append(valid, []byte("mdat")...)

	missingFtyp := append([]byte{0, 0, 0, 24}, []byte("free")...)
	missingFtyp = append(missingFtyp, []byte("moofmdat")...)

	missingBoxes := append([]byte{0, 0, 0, 24}, []byte("ftyp")...)
	missingBoxes = append(missingBoxes, []byte("mp42mp42")...)

	cases := []struct {
		name    string
		content []byte
		want    Verdict
	}{
		{"well_formed", valid, Accept},
		{"missing_ftyp_header", missingFtyp, Warn},
		{"missing_moof_mdat", missingBoxes, Warn},
		{"too_short", []byte{0, 0}, Warn},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeTemp(t, c.content)
			if got := FragmentedMP4(path); got != c.want {
				t.Errorf("FragmentedMP4(%s) = %v, want %v", c.name, got, c.want)
			}
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		if got := FragmentedMP4(filepath.Join(t.TempDir(), "absent.m4s")); got != Warn {
			t.Errorf("FragmentedMP4(missing) = %v, want Warn", got)
		}
	})
}

func TestMP4AlwaysAccepts(t *testing.T) {
	if got := MP4(); got != Accept {
		t.Errorf("MP4() = %v, want Accept", got)
	}
}

func TestVerdictString(t *testing.T) {
	cases := map[Verdict]string{Reject: "reject", Warn: "warn", Accept: "accept", Verdict(99): "unknown"}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", v, got, want)
		}
	}
}
