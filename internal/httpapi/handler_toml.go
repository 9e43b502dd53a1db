package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/audiohls/ingest-server/internal/tomlmeta"
)

// handleTOMLUpload reads the whole body (metadata documents are small
// compared to media archives), strips the legacy delimiter envelope, and
// confirms the remainder parses as TOML.
func (s *Server) handleTOMLUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	sess.state = stateWriting
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		sess.log.WithError(err).Warn("session: toml upload body read failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := tomlmeta.Parse(body); err != nil {
		sess.log.WithError(err).Warn("session: toml upload rejected")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sess.log.Info("session: toml upload accepted")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "TOML parsed\r\n")
}
