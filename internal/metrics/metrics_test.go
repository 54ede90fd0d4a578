package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteToTextfile(t *testing.T) {
	m := New()
	m.ObserveRequest("users", 200)
	m.ObserveRequest("streams", 200)
	m.ObserveRequest("streams", 200)
	m.ObserveRequest("streams", 500)
	m.ObserveDecodeFailure("streams")
	m.SetLiveStreams(3)

	path := filepath.Join(t.TempDir(), "procrastinate.prom")
	if err := m.WriteToTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, line := range []string{
		`procrastinate_api_requests_total{code="200",endpoint="streams"} 2`,
		`procrastinate_api_requests_total{code="500",endpoint="streams"} 1`,
		`procrastinate_api_requests_total{code="200",endpoint="users"} 1`,
		`procrastinate_api_decode_failures_total{endpoint="streams"} 1`,
		`procrastinate_live_streams 3`,
	} {
		if !strings.Contains(text, line) {
			t.Errorf("%q not found in\n%s", line, text)
		}
	}
}
