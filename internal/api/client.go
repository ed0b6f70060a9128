// internal/api/client.go

// Package api is the request/response channel to the lab backend: one-time
// setup calls plus the periodic completion-status fallback poll. Every
// call here is non-fatal to the session; callers treat failures as "keep
// the previous state and move on".
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gestured/labstream/internal/models"
)

// Status is the completion snapshot returned by the status/ endpoint.
// Chemical and ReactionType may be absent even when Complete is true.
type Status struct {
	Complete     bool                 `json:"complete"`
	Chemical     *models.Chemical     `json:"chemical"`
	ReactionType models.IndicatorMode `json:"reaction_type"`
}

// Client talks to the reactions/ REST endpoints.
type Client struct {
	base string
	http *http.Client
	log  *logrus.Logger
}

// NewClient builds a client for the given base URL (the reactions/ prefix).
func NewClient(baseURL string, log *logrus.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// Chemicals fetches the substance catalog.
func (c *Client) Chemicals(ctx context.Context) ([]models.Chemical, error) {
	var out struct {
		Chemicals []models.Chemical `json:"chemicals"`
	}
	if err := c.get(ctx, "chemicals/", &out); err != nil {
		return nil, err
	}
	return out.Chemicals, nil
}

// CurrentReaction fetches the active indicator mode, if any.
func (c *Client) CurrentReaction(ctx context.Context) (models.IndicatorMode, error) {
	var out struct {
		ActiveReaction *models.IndicatorMode `json:"active_reaction"`
	}
	if err := c.get(ctx, "current/", &out); err != nil {
		return models.IndicatorUnset, err
	}
	if out.ActiveReaction == nil {
		return models.IndicatorUnset, nil
	}
	return *out.ActiveReaction, nil
}

// Status queries the completion-status fallback endpoint.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.get(ctx, "status/", &out)
	return out, err
}

// StartReaction activates a litmus paper variant server-side.
func (c *Client) StartReaction(ctx context.Context, mode models.IndicatorMode) error {
	if !mode.Known() {
		return fmt.Errorf("api: invalid reaction type %q", mode)
	}
	return c.post(ctx, "start/", map[string]any{"reaction_type": mode})
}

// SetChemical posts a substance selection. On failure the server retains
// its previous selection, and so should the caller.
func (c *Client) SetChemical(ctx context.Context, chemicalID string) error {
	return c.post(ctx, "set-chemical/", map[string]any{"chemical_id": chemicalID})
}

// Stop notifies the server that the session is over.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "stop/", map[string]any{})
}

// StopAsync fires the stop notification without waiting for the caller.
// Failure is logged and swallowed; teardown is never blocked on it.
func (c *Client) StopAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.Stop(ctx); err != nil {
			c.log.WithError(err).Warn("stop notification failed")
		}
	}()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("api: build GET %s: %w", path, err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("api: marshal POST %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("api: build POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("api: %s %s: %s (status %d)", req.Method, req.URL.Path, payload.Error, resp.StatusCode)
		}
		return fmt.Errorf("api: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
