// Command agent runs the timed-event coordinator: it serves the
// register/unregister protocol over NATS and fires due events back through
// the gateway's session API as the event's definer.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"fedsql/internal/config"
	"fedsql/internal/domain"
	"fedsql/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "agent:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://127.0.0.1" + cfg.ListenAddr
	}

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("fedsql-agent"))
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	runner := &gatewayRunner{
		baseURL:    gatewayURL,
		userHeader: cfg.UserHeader,
		client:     &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}

	agent := scheduler.NewAgent(runner, logger)
	if err := agent.Subscribe(nc); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	agent.Start()
	defer agent.Stop()

	logger.Info("agent ready", "nats", cfg.NATSURL, "gateway", gatewayURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

// gatewayRunner fires an event by opening a short-lived gateway session as
// the event's definer and running its statements through the session API.
type gatewayRunner struct {
	baseURL    string
	userHeader string
	client     *http.Client
	logger     *slog.Logger
}

func (g *gatewayRunner) RunEvent(ctx context.Context, ev *domain.TimedEvent) error {
	var opened struct {
		SessionID string `json:"session_id"`
	}
	if err := g.post(ctx, ev.Definer, "/api/v1/sessions", map[string]any{}, &opened); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/api/v1/sessions/"+opened.SessionID, nil)
		if err != nil {
			return
		}
		req.Header.Set(g.userHeader, ev.Definer)
		if resp, err := g.client.Do(req); err == nil {
			resp.Body.Close()
		}
	}()

	body := map[string]any{"statements": ev.Statements, "fetch_size": 1000, "max_rows": 1}
	if err := g.post(ctx, ev.Definer, "/api/v1/sessions/"+opened.SessionID+"/query", body, nil); err != nil {
		return fmt.Errorf("run event %s/%s: %w", ev.Group, ev.Name, err)
	}
	g.logger.Info("event fired", "group", ev.Group, "name", ev.Name)
	return nil
}

func (g *gatewayRunner) post(ctx context.Context, user, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(g.userHeader, user)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
