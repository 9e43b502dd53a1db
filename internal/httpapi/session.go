package httpapi

import (
	"context"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"
)

// sessionState mirrors the connection lifecycle a bespoke session object
// would track by hand: New, Handshaking, Reading, Dispatching, Writing,
// ShuttingDown, Closed. net/http and the tls package run New, Handshaking
// and most of Reading (header parsing) before a handler is ever invoked. A
// handler here runs in Dispatching and moves the session to Writing; the
// middleware marks it Closed once the handler returns. Only Dispatching
// and Closed are logged, and no code path sets stateShuttingDown.
type sessionState string

const (
	stateDispatching  sessionState = "dispatching"
	stateWriting      sessionState = "writing"
	stateShuttingDown sessionState = "shutting_down"
	stateClosed       sessionState = "closed"
)

type sessionCtxKey struct{}

// session carries per-request bookkeeping through the handler chain: a
// logger entry pre-populated with the client address and target, and the
// lifecycle state a handler updates as it moves through its own
// dispatch/write phases.
type session struct {
	log   *logrus.Entry
	state sessionState
}

func sessionFrom(r *http.Request) *session {
	if s, ok := r.Context().Value(sessionCtxKey{}).(*session); ok {
		return s
	}
	return &session{log: logrus.NewEntry(logrus.StandardLogger())}
}

// sessionMiddleware opens a session for every accepted connection's
// request, logs the New->Dispatching transition, and logs Closed once the
// handler chain returns control. Handlers set Writing on the session when
// they start their response; that transition is not logged.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics != nil {
			s.metrics.SessionStarted()
			defer s.metrics.SessionEnded()
		}

		sess := &session{
			log:   s.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "method": r.Method, "target": r.URL.Path}),
			state: stateDispatching,
		}
		sess.log.Debug("session: dispatching")

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))

		sess.state = stateClosed
		sess.log.Debug("session: closed")
	})
}

// publisherIDFor derives the publisher identity from the connecting
// address, since no other client credential is exchanged. Only the host
// portion is kept so a client reconnecting on a different ephemeral port
// still resolves to the same publisher.
func publisherIDFor(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
