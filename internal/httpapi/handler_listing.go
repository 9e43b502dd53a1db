package httpapi

import (
	"fmt"
	"net/http"
)

// handleListing serves GET /hls/clients: a "<publisherId>:\n" header per
// publisher directory, followed by a "  - <audioId>\n" bullet per audio
// subdirectory, or "  (No audio IDs found)\n" if it has none. Mirrors
// server.cpp's directory walk over the storage root. If the storage root
// has no publisher directories at all, the response is 404 rather than an
// empty 200 body.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	entries, err := s.layout.ListPublishers()
	sess.state = stateWriting
	if err != nil {
		sess.log.WithError(err).Error("session: listing failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if len(entries) == 0 {
		sess.log.Warn("session: listing found no publishers or audio ids in storage")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, e := range entries {
		fmt.Fprintf(w, "%s:\n", e.PublisherID)
		if len(e.AudioIDs) == 0 {
			fmt.Fprint(w, "  (No audio IDs found)\n")
			continue
		}
		for _, audioID := range e.AudioIDs {
			fmt.Fprintf(w, "  - %s\n", audioID)
		}
	}
}
