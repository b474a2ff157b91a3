// Package catalog wraps the read-only Rick and Morty character API.
//
// The adapter is deliberately best-effort: any transport failure,
// non-2xx status or malformed body collapses to ErrUnavailable so
// callers can omit the enrichment instead of failing the request.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FernanDeHoyos/api-rick/internal/pkg/metrics"
)

// DefaultBaseURL is the public character endpoint.
const DefaultBaseURL = "https://rickandmortyapi.com/api/character"

// ErrUnavailable is the single failure mode of this adapter.
var ErrUnavailable = errors.New("catalog unavailable")

// Character is the subset of the catalog record the API exposes.
type Character struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Species string `json:"species"`
	Image   string `json:"image"`
}

// PageInfo mirrors the catalog's paginated "info" block.
type PageInfo struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

type pageResponse struct {
	Info    PageInfo    `json:"info"`
	Results []Character `json:"results"`
}

// Client fetches character records over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a catalog client. baseURL falls back to
// DefaultBaseURL, timeout to 5s.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Character fetches a single record by its positive integer id.
func (c *Client) Character(ctx context.Context, id int) (*Character, error) {
	if id <= 0 {
		return nil, c.unavailable("invalid character id", fmt.Errorf("id %d", id))
	}

	var ch Character
	if err := c.getJSON(ctx, c.baseURL+"/"+strconv.Itoa(id), &ch); err != nil {
		return nil, err
	}
	metrics.CatalogLookupsTotal.WithLabelValues("ok").Inc()
	return &ch, nil
}

// Characters fetches one page of the catalog listing.
func (c *Client) Characters(ctx context.Context, page int) ([]Character, *PageInfo, error) {
	if page <= 0 {
		page = 1
	}

	var resp pageResponse
	if err := c.getJSON(ctx, c.baseURL+"/?page="+strconv.Itoa(page), &resp); err != nil {
		return nil, nil, err
	}
	metrics.CatalogLookupsTotal.WithLabelValues("ok").Inc()
	return resp.Results, &resp.Info, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.unavailable("build request failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.unavailable("catalog request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.unavailable("catalog returned non-2xx", fmt.Errorf("status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.unavailable("decode catalog response failed", err)
	}
	return nil
}

func (c *Client) unavailable(msg string, err error) error {
	metrics.CatalogLookupsTotal.WithLabelValues("unavailable").Inc()
	if c.logger != nil {
		c.logger.Warn(msg, slog.String("error", err.Error()))
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
