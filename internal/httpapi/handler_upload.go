package httpapi

import (
	"errors"
	"net/http"

	"github.com/audiohls/ingest-server/internal/pipeline"
)

// handleUpload runs every POST target other than /toml/upload through the
// upload pipeline: the body is the raw tar+gzip archive, the response
// carries the newly minted audio id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	deps := pipeline.Deps{Layout: s.layout, Log: s.log, Metrics: s.metrics, IDs: s.ids}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	publisherID := publisherIDFor(r)

	audioID, err := pipeline.Run(deps, publisherID, body)

	sess.state = stateWriting
	if err != nil {
		s.writeUploadError(w, sess, err)
		return
	}

	sess.log.WithField("audio_id", audioID).Info("session: upload accepted")
	w.Header().Set("Client-ID", audioID)
	w.WriteHeader(http.StatusOK)
}

// writeUploadError maps a pipeline failure to a status code. A body that
// exceeded the upload cap surfaces as an *http.MaxBytesError wrapped deep
// inside the pipeline's I/O failure and is checked first so oversized
// uploads get 413 rather than a generic 500.
func (s *Server) writeUploadError(w http.ResponseWriter, sess *session, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		sess.log.Warn("session: upload body exceeded cap")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	var pe *pipeline.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case pipeline.KindIO, pipeline.KindPromotionFailed:
			sess.log.WithError(err).Error("session: upload failed")
			w.WriteHeader(http.StatusInternalServerError)
		case pipeline.KindEmpty, pipeline.KindArchiveInvalid, pipeline.KindNoValidFiles:
			sess.log.WithError(err).Warn("session: upload rejected")
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	sess.log.WithError(err).Error("session: upload failed with unclassified error")
	w.WriteHeader(http.StatusInternalServerError)
}
