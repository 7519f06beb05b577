// Package channel is the inbound HTTP surface: the Chatwoot webhook, its
// liveness probe, and the metrics endpoint.
package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"greywaterbot/internal/agent"
	"greywaterbot/internal/domain"
	"greywaterbot/internal/metrics"

	"github.com/google/uuid"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Chatwoot-Signature"

	serviceName    = "Water Wise Group Chat Bot"
	serviceVersion = "2.0"

	maxBodyBytes = 1 << 20
)

// EventHandler classifies one webhook event.
type EventHandler interface {
	Handle(ctx context.Context, e *domain.InboundEvent) (agent.Status, error)
}

// ChatwootConfig configures the webhook server.
type ChatwootConfig struct {
	Host        string
	Port        int
	Path        string // webhook path (default: /api/chatwoot)
	Secret      string // HMAC secret; empty disables verification
	MetricsPath string // empty disables the metrics endpoint
	Handler     EventHandler
	Logger      *slog.Logger
}

// Chatwoot serves the Chatwoot webhook.
type Chatwoot struct {
	addr        string
	path        string
	secret      string
	metricsPath string
	handler     EventHandler
	logger      *slog.Logger
	server      *http.Server

	warnUnsigned sync.Once
}

func NewChatwoot(cfg ChatwootConfig) *Chatwoot {
	if cfg.Path == "" {
		cfg.Path = "/api/chatwoot"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Chatwoot{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		path:        cfg.Path,
		secret:      cfg.Secret,
		metricsPath: cfg.MetricsPath,
		handler:     cfg.Handler,
		logger:      cfg.Logger,
	}
}

func (c *Chatwoot) Name() string { return "chatwoot" }

// Routes returns the server's handler.
func (c *Chatwoot) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(c.path, c.handleWebhook)
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	if c.metricsPath != "" {
		mux.Handle(c.metricsPath, metrics.Handler())
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (c *Chatwoot) Start(ctx context.Context) error {
	c.server = &http.Server{
		Addr:              c.addr,
		Handler:           c.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if c.secret == "" {
		c.warnUnsigned.Do(func() {
			c.logger.Warn("no webhook secret configured, skipping signature verification")
		})
	}
	c.logger.Info("webhook server starting", "addr", c.addr, "path", c.path)

	errCh := make(chan error, 1)
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		c.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (c *Chatwoot) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.handleHealth(rw)
	case http.MethodPost:
		c.handleEvent(rw, r)
	default:
		rw.Header().Set("Allow", "GET, POST")
		writeJSON(rw, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

func (c *Chatwoot) handleHealth(rw http.ResponseWriter) {
	writeJSON(rw, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *Chatwoot) handleEvent(rw http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	rw.Header().Set("X-Request-Id", requestID)
	logger := c.logger.With("request_id", requestID)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("webhook handler panicked", "panic", p)
			metrics.WebhookErrors.WithLabelValues("panic").Inc()
			internalError(rw)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	defer r.Body.Close()
	if err != nil {
		logger.Error("read webhook body", "err", err)
		metrics.WebhookErrors.WithLabelValues("read").Inc()
		internalError(rw)
		return
	}

	if !c.verifySignature(body, r.Header.Get(SignatureHeader), logger) {
		metrics.WebhookErrors.WithLabelValues("signature").Inc()
		writeJSON(rw, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	var event domain.InboundEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Error("decode webhook", "err", err)
		metrics.WebhookErrors.WithLabelValues("decode").Inc()
		internalError(rw)
		return
	}

	logger.Info("webhook received", "event", event.Event, "conversation_id", event.ConversationID())

	// Chatwoot gives up on slow webhooks; the reply must still go out.
	ctx := context.WithoutCancel(r.Context())
	start := time.Now()
	status, err := c.handler.Handle(ctx, &event)
	if err != nil {
		logger.Error("webhook failed", "event", event.Event, "err", err)
		metrics.WebhookErrors.WithLabelValues("handler").Inc()
		internalError(rw)
		return
	}

	metrics.WebhookEvents.WithLabelValues(event.Event, string(status)).Inc()
	logger.Info("webhook handled",
		"event", event.Event,
		"conversation_id", event.ConversationID(),
		"status", status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(rw, http.StatusOK, map[string]string{"status": string(status)})
}

// verifySignature checks the body against the configured secret. With no
// secret every request passes.
func (c *Chatwoot) verifySignature(body []byte, signature string, logger *slog.Logger) bool {
	if c.secret == "" {
		c.warnUnsigned.Do(func() {
			logger.Warn("no webhook secret configured, skipping signature verification")
		})
		return true
	}
	if signature == "" {
		logger.Warn("missing webhook signature")
		return false
	}
	if !verifyHMAC(body, c.secret, signature) {
		logger.Warn("webhook signature mismatch")
		return false
	}
	return true
}

// verifyHMAC compares signature, hex with an optional "sha256=" prefix, to
// the HMAC-SHA256 of body in constant time.
func verifyHMAC(body []byte, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func internalError(rw http.ResponseWriter) {
	writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}
