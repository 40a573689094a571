package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestExposition(t *testing.T) {
	size := 42
	m := New(func() int { return size })

	m.RecordLoad("ok", 100)
	m.RecordLoad("error", 0)
	m.RecordSample("ok", 7)
	m.RecordRequest("sample", "200", 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	assert.NoError(t, err)
	text := string(body)

	for _, want := range []string{
		"linesampler_pool_lines 42",
		`linesampler_lines_loaded_total 100`,
		`linesampler_lines_sampled_total 7`,
		`linesampler_loads_total{outcome="ok"} 1`,
		`linesampler_loads_total{outcome="error"} 1`,
		`linesampler_samples_total{outcome="ok"} 1`,
		`linesampler_http_request_duration_seconds_count{handler="sample",status="200"} 1`,
	} {
		assert.True(t, strings.Contains(text, want), "missing %q in exposition:\n%s", want, text)
	}

	// The gauge reads through the callback on every scrape.
	size = 7
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ = io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "linesampler_pool_lines 7"))
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances must not collide the way default-registry metrics do.
	a := New(func() int { return 1 })
	b := New(func() int { return 2 })
	a.RecordLoad("ok", 1)
	b.RecordLoad("ok", 2)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "linesampler_lines_loaded_total 1"))
}
