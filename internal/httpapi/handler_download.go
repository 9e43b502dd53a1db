package httpapi

import (
	"net/http"
	"os"
	"strings"
)

// contentTypeFor maps a filename extension to the Content-Type a download
// response carries. Anything not recognized falls back to a generic octet
// stream rather than guessing.
func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(name, ".ts"):
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// handleDownload serves GET /hls/clients through handleListing and every
// other GET target here. A target must decompose into exactly
// /hls/<publisher>/<audio>/<file>; anything else is a malformed request.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	if r.URL.Path == "/hls/clients" {
		s.handleListing(w, r)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "hls" {
		sess.state = stateWriting
		s.metricsDownload("bad_request")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	publisherID, audioID, filename := parts[1], parts[2], parts[3]
	path := s.layout.PathFor(publisherID, audioID, filename)

	f, err := os.Open(path)
	sess.state = stateWriting
	if err != nil {
		if os.IsNotExist(err) {
			s.metricsDownload("not_found")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		sess.log.WithError(err).Error("session: download open failed")
		s.metricsDownload("io_failure")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.metricsDownload("io_failure")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		s.metricsDownload("not_found")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(filename))
	http.ServeContent(w, r, filename, info.ModTime(), f)
	s.metricsDownload("ok")
}

func (s *Server) metricsDownload(status string) {
	if s.metrics != nil {
		s.metrics.ObserveDownload(status)
	}
}
