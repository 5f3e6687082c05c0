// Package generation wraps the external generative API behind a small
// interface: product image generation and campaign message translation.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	bckoff "github.com/cenkalti/backoff/v4"
	cb "github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/pkg/errors"
	"github.com/brandgate/creative-automation/pkg/json"
)

// Service is the boundary the pipeline depends on. Implementations must be
// safe for concurrent use across products.
type Service interface {
	GenerateProductImage(ctx context.Context, productName, description, theme string) ([]byte, error)
	Translate(ctx context.Context, message, region, audience string) (string, error)
}

// Config tunes the HTTP client.
type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxElapsed time.Duration
}

// Client talks to the generation API over HTTP with exponential-backoff
// retries inside a circuit breaker, so a struggling upstream fails fast
// instead of stalling every product.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *cb.CircuitBreaker
	log     *zap.Logger
}

// NewClient builds a generation client.
func NewClient(log *zap.Logger, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "generation endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}

	settings := cb.Settings{
		Name:        "GenerationAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to cb.State) {
			log.Warn("Circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb.NewCircuitBreaker(settings),
		log:     log,
	}, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Image string `json:"image"`
}

type translateRequest struct {
	Message  string `json:"message"`
	Region   string `json:"region"`
	Audience string `json:"audience"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

// GenerateProductImage asks the API for a product hero image and returns the
// decoded image bytes.
func (c *Client) GenerateProductImage(ctx context.Context, productName, description, theme string) ([]byte, error) {
	prompt := fmt.Sprintf(
		"Professional product photograph of %s: %s. Brand theme: %s. Clean studio background, no text.",
		productName, description, theme,
	)

	var resp generateResponse
	if err := c.post(ctx, "/v1/images", generateRequest{Prompt: prompt}, &resp); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, errors.Wrap(errors.ErrGenerationFailed, fmt.Sprintf("decoding image payload: %v", err))
	}
	return data, nil
}

// Translate localizes the campaign message for a region and audience.
func (c *Client) Translate(ctx context.Context, message, region, audience string) (string, error) {
	var resp translateResponse
	err := c.post(ctx, "/v1/translations", translateRequest{
		Message:  message,
		Region:   region,
		Audience: audience,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Translation, nil
}

// post sends one JSON request with retry and breaker protection. Client-side
// errors (4xx) are permanent; everything else retries until MaxElapsed.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrGenerationFailed, fmt.Sprintf("encoding request: %v", err))
	}

	operation := func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doOnce(ctx, path, body, out)
		})
		if err == cb.ErrOpenState || err == cb.ErrTooManyRequests {
			// Let the breaker cool down instead of hammering it.
			return bckoff.Permanent(err)
		}
		return err
	}

	expBackoff := bckoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = c.cfg.MaxElapsed

	if err := bckoff.Retry(operation, bckoff.WithContext(expBackoff, ctx)); err != nil {
		return errors.Wrap(errors.ErrGenerationFailed, err.Error())
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return bckoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("generation API returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return bckoff.Permanent(fmt.Errorf("generation API rejected request: %d", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return bckoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
