// Package amap searches places with the AMap web service. Coordinates it
// returns are GCJ-02.
package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const Endpoint = "https://restapi.amap.com/v3/place/text"

const pageSize = 20

var ErrNoKeywords = errors.New("no search keywords")

type Client struct {
	endpoint   string
	key        string
	http       *http.Client
	cache      Cache
	logger     *slog.Logger
	maxElapsed time.Duration
}

func New(endpoint, key string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		key:        key,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		maxElapsed: 10 * time.Second,
	}
}

// SetCache makes Search consult cache before calling the service.
func (c *Client) SetCache(cache Cache) {
	c.cache = cache
}

// APIError is a response whose status field is not "1".
type APIError struct {
	Info     string
	InfoCode string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("amap error: %s (%s)", e.Info, e.InfoCode)
}

// Temporary reports whether the error is a rate limit.
func (e *APIError) Temporary() bool {
	switch e.InfoCode {
	case "10004", "10014", "10015", "10019", "10020", "10021":
		return true
	default:
		return false
	}
}

// HTTPError is a non-200 response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("amap http error: %d %s: %s", e.StatusCode, e.Status, e.Body)
}

func (c *Client) Search(ctx context.Context, keywords, city string) ([]Place, error) {
	keywords = strings.TrimSpace(keywords)
	city = strings.TrimSpace(city)
	if keywords == "" {
		return nil, ErrNoKeywords
	}

	key := cacheKey(keywords, city)
	if places, ok := c.cached(ctx, key); ok {
		return places, nil
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("keywords", keywords)
	if city != "" {
		q.Set("city", city)
	}
	q.Set("offset", strconv.Itoa(pageSize))
	q.Set("page", "1")
	q.Set("key", c.key)
	q.Set("output", "json")
	u.RawQuery = q.Encode()

	var places []Place
	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "photo-geotag")

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("amap request failed", "err", err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if err != nil {
				body = nil
			}
			err = &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
			if resp.StatusCode >= 500 {
				return err
			} else {
				return backoff.Permanent(err)
			}
		}

		places, err = ParseJSON(resp.Body)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Temporary() {
			return err
		} else if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(c.maxElapsed)), ctx))
	if err != nil {
		return nil, err
	}

	c.logger.Info("amap search", "keywords", keywords, "city", city, "results", len(places))
	c.store(ctx, key, places)
	return places, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]Place, bool) {
	if c.cache == nil {
		return nil, false
	}
	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("amap cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var places []Place
	if err := json.Unmarshal(value, &places); err != nil {
		c.logger.Warn("amap cache entry unreadable", "key", key, "err", err)
		return nil, false
	}
	c.logger.Debug("amap cache hit", "key", key)
	return places, true
}

func (c *Client) store(ctx context.Context, key string, places []Place) {
	if c.cache == nil {
		return
	}
	value, err := json.Marshal(places)
	if err != nil {
		c.logger.Warn("amap cache encode failed", "err", err)
		return
	}
	if err := c.cache.Set(ctx, key, value, cacheTTL); err != nil {
		c.logger.Warn("amap cache set failed", "key", key, "err", err)
	}
}
