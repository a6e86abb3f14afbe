package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SSEWriter writes frames to a fake upstream stream.
type SSEWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one message as a flat JSON object tagged with eventType.
func (s *SSEWriter) Send(eventType string, fields map[string]any) {
	msg := map[string]any{"type": eventType}
	for k, v := range fields {
		msg[k] = v
	}
	data, _ := json.Marshal(msg)
	s.Raw(eventType, string(data))
}

// Raw writes one frame with the given event name and data line.
func (s *SSEWriter) Raw(event, data string) {
	if event != "" {
		fmt.Fprintf(s.w, "event: %s\n", event)
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Done is closed when the client goes away.
func (s *SSEWriter) Done() <-chan struct{} {
	return s.r.Context().Done()
}

// FakeUpstream is an httptest deliberation service driven by a script.
type FakeUpstream struct {
	Server *httptest.Server

	mu           sync.Mutex
	script       func(w *SSEWriter)
	cancelStatus int
	cancels      []string
	requests     int
}

// NewFakeUpstream starts a fake upstream that runs script for every stream.
func NewFakeUpstream(t *testing.T, script func(w *SSEWriter)) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{script: script, cancelStatus: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeUpstream) URL() string {
	return f.Server.URL
}

// SetCancelStatus sets the status returned by the cancel endpoint.
func (f *FakeUpstream) SetCancelStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelStatus = status
}

// Cancels returns the run ids the fake was asked to cancel.
func (f *FakeUpstream) Cancels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancels...)
}

// Requests returns the number of streams opened.
func (f *FakeUpstream) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/cancel") {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/debates/"), "/cancel")
		f.mu.Lock()
		f.cancels = append(f.cancels, id)
		status := f.cancelStatus
		f.mu.Unlock()
		w.WriteHeader(status)
		return
	}

	f.mu.Lock()
	f.requests++
	script := f.script
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if script != nil {
		script(&SSEWriter{w: w, r: r})
	}
}
