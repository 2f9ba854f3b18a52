package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"stemsplit/internal/config"
)

const userAgent = "stemsplit/0.1"

// Service defines the notification surface exposed to the job runner.
type Service interface {
	NotifySeparationCompleted(ctx context.Context, inputPath, outputDir string, stems int, elapsed time.Duration) error
	NotifySeparationFailed(ctx context.Context, inputPath, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySeparationCompleted(ctx context.Context, inputPath, outputDir string, stems int, elapsed time.Duration) error {
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	message := fmt.Sprintf("🎚️ Separated %s into %d stems in %s\nSaved to: %s", filepath.Base(inputPath), stems, elapsed, outputDir)
	return n.send(ctx, payload{
		title:   "stemsplit - Complete",
		message: message,
		tags:    []string{"stemsplit", "separation", "completed"},
	})
}

func (n *ntfyService) NotifySeparationFailed(ctx context.Context, inputPath, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	return n.send(ctx, payload{
		title:    "stemsplit - Failed",
		message:  fmt.Sprintf("❌ %s: %s", filepath.Base(inputPath), message),
		tags:     []string{"stemsplit", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "stemsplit - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"stemsplit", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySeparationCompleted(context.Context, string, string, int, time.Duration) error {
	return nil
}
func (noopService) NotifySeparationFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
