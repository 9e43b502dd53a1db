package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposedOnHandler(t *testing.T) {
	m := New()
	m.ObserveUpload("accepted", 128)
	m.ObserveValidation("playlist", "accept")
	m.ObserveDownload("ok")
	m.SessionStarted()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)

	body := rr.Body.String()
	for _, want := range []string{
		"hls_ingest_uploads_total",
		"hls_ingest_files_validated_total",
		"hls_ingest_downloads_total",
		"hls_ingest_active_sessions",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
