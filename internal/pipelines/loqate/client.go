package loqate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// DefaultBaseURL is the public Loqate endpoint.
const DefaultBaseURL = "https://api.addressy.com"

const (
	findPath     = "/Capture/Interactive/Find/v1.10/json3.ws"
	retrievePath = "/Capture/Interactive/Retrieve/v1.00/json3.ws"
	findLimit    = 5
	maxBody      = 1 << 20
)

// Item is one entry of a Loqate response. Values are strings for every
// field this package reads.
type Item map[string]any

// Get returns the trimmed string value of key.
func (i Item) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := i[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

type response struct {
	Items []Item `json:"Items"`
}

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	BaseURL    string
	Key        string
	Rate       rate.Limit
	Burst      int
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client calls the Capture Interactive Find and Retrieve services.
// The limiter paces outbound requests for the whole process.
type Client struct {
	baseURL    string
	key        string
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client. Zero values fall back to one request per
// second, two retries and a 200ms base backoff.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Rate == 0 {
		cfg.Rate = rate.Every(time.Second)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 8 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.Key,
		limiter:    rate.NewLimiter(cfg.Rate, cfg.Burst),
		retries:    cfg.MaxRetries,
		backoff:    cfg.Backoff,
		httpClient: cfg.HTTPClient,
	}
}

// Find searches for candidates matching text.
func (c *Client) Find(ctx context.Context, text string) ([]Item, error) {
	params := url.Values{}
	params.Set("Text", text)
	params.Set("Limit", fmt.Sprint(findLimit))
	return c.get(ctx, findPath, params)
}

// Retrieve returns the full address for a candidate id.
func (c *Client) Retrieve(ctx context.Context, id string) ([]Item, error) {
	params := url.Values{}
	params.Set("Id", id)
	return c.get(ctx, retrievePath, params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]Item, error) {
	if c.key == "" {
		return nil, fmt.Errorf("%w: loqate api key not configured", pipelines.ErrMisconfigured)
	}
	params.Set("Key", c.key)
	endpoint := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: loqate rate limiter: %w", pipelines.ErrThrottled, err)
		}

		items, retry, err := c.do(ctx, endpoint)
		if err == nil {
			return items, nil
		}
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// do performs one request and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, endpoint string) ([]Item, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, which holds the key and the address.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, true, fmt.Errorf("loqate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, true, fmt.Errorf("read loqate response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: loqate status %d", pipelines.ErrThrottled, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("loqate status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("loqate status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, false, fmt.Errorf("%w: loqate response is not json", pipelines.ErrInvalidOutput)
	}
	if err := apiError(r.Items); err != nil {
		return nil, false, err
	}
	return r.Items, false, nil
}

// apiError maps the error item Loqate returns with a 200 status.
func apiError(items []Item) error {
	if len(items) == 0 {
		return nil
	}
	code := items[0].Get("Error")
	if code == "" {
		return nil
	}
	desc := items[0].Get("Description")

	switch code {
	case "2", "3", "4", "5", "6", "7", "11", "16", "17":
		return fmt.Errorf("%w: loqate error %s %s", pipelines.ErrMisconfigured, code, desc)
	case "8", "9", "10":
		return fmt.Errorf("%w: loqate error %s %s", pipelines.ErrThrottled, code, desc)
	}
	return fmt.Errorf("loqate error %s %s", code, desc)
}
