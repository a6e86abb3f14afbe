package debateclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

func TestClientStreamParsesSSE(t *testing.T) {
	var gotHeaders http.Header
	var gotReq domain.StartRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/debates" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: connection\ndata: {\"type\":\"connection\",\"run_id\":\"R1\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"type\":\"debate_complete\",\"result\":{}}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req := &domain.StartRequest{Topic: "X", AgentCount: 4, RequestID: "req-1"}
	var msgs []Message
	err := client.Stream(ctx, req, func(msg Message) error {
		msgs = append(msgs, msg)
		return nil
	})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if gotReq.Topic != "X" || gotReq.AgentCount != 4 {
		t.Fatalf("unexpected request payload: %+v", gotReq)
	}
	if gotHeaders.Get("Authorization") != "Bearer secret" {
		t.Fatalf("missing Authorization header")
	}
	if gotHeaders.Get("Accept") != "text/event-stream" {
		t.Fatalf("missing Accept header")
	}
	if gotHeaders.Get("X-Request-ID") != "req-1" {
		t.Fatalf("missing X-Request-ID header")
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Event != "connection" || msgs[1].Event != "" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestClientStreamNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no credits", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	err := client.Stream(context.Background(), &domain.StartRequest{Topic: "X"}, func(Message) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "402") || !strings.Contains(err.Error(), "no credits") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClientStreamHandlerErrorStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"connection\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"heartbeat\"}\n\n")
	}))
	defer server.Close()

	stop := errors.New("stop")
	calls := 0
	client := NewClient(server.URL, "")
	err := client.Stream(context.Background(), &domain.StartRequest{Topic: "X"}, func(Message) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestClientStreamContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"connection\",\"run_id\":\"R1\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL, "")

	done := make(chan error, 1)
	go func() {
		done <- client.Stream(ctx, &domain.StartRequest{Topic: "X"}, func(Message) error {
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected error after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not stop after cancel")
	}
}

func TestClientCancel(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path == "/v1/debates/gone/cancel" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if err := client.Cancel(context.Background(), "R1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if gotPath != "/v1/debates/R1/cancel" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if err := client.Cancel(context.Background(), "gone"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestParseSSEMultilineData(t *testing.T) {
	input := "event: agent_response\n" +
		"data: first line\n" +
		"data: second line\n\n" +
		"data: trailing"

	var msgs []Message
	if err := parseSSE(strings.NewReader(input), func(msg Message) error {
		msgs = append(msgs, msg)
		return nil
	}); err != nil {
		t.Fatalf("parseSSE failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Data != "first line\nsecond line" {
		t.Fatalf("unexpected data: %q", msgs[0].Data)
	}
	if msgs[1].Data != "trailing" {
		t.Fatalf("unexpected trailing data: %q", msgs[1].Data)
	}
}
