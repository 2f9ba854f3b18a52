package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stemsplit/internal/config"
	"stemsplit/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySeparationFailed(context.Background(), "/a.mp3", "boom"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifySeparationCompleted(ctx, "/music/song.mp3", "/out", 4, 93*time.Second+400*time.Millisecond); err != nil {
		t.Fatalf("NotifySeparationCompleted: %v", err)
	}
	got := <-requests
	if got.title != "stemsplit - Complete" || got.tags != "stemsplit,separation,completed" {
		t.Fatalf("unexpected headers: %+v", got)
	}
	for _, want := range []string{"song.mp3", "4 stems", "1m33s", "/out"} {
		if !strings.Contains(got.body, want) {
			t.Fatalf("expected %q in body %q", want, got.body)
		}
	}

	if err := svc.NotifySeparationFailed(ctx, "/music/song.mp3", "disk full"); err != nil {
		t.Fatalf("NotifySeparationFailed: %v", err)
	}
	got = <-requests
	if got.priority != "high" || !strings.Contains(got.body, "disk full") {
		t.Fatalf("unexpected failure payload: %+v", got)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
