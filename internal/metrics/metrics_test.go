package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecorders(t *testing.T) {
	m := New("debatebridge")

	m.RecordEvent("agent_response")
	m.RecordEvent("agent_response")
	m.RecordDrop("malformed")
	m.RecordPoll("notified", 150*time.Millisecond)
	m.RecordRunFinished("completed")
	m.RecordToolCall("poll_debate", true)
	m.RecordToolCall("poll_debate", false)
	m.RecordPublication("published")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsIngested.WithLabelValues("agent_response")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("notified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("poll_debate", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Publications.WithLabelValues("published")))
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New("debatebridge")
		New("debatebridge")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("debatebridge")
	m.RunsStarted.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "debatebridge_runs_started_total 1")
}
