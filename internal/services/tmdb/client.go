package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"medialink/internal/config"
	"medialink/internal/services"
)

// Client issues search requests against The Movie Database API.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *http.Client
}

// NewClient builds a catalogue client from configuration.
func NewClient(cfg config.TMDB) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// SearchMovie queries the movie index. A zero year omits the year filter.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]searchResult, error) {
	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/movie", params)
}

// SearchTV queries the TV index. A zero year omits the year filter.
func (c *Client) SearchTV(ctx context.Context, title string, year int) ([]searchResult, error) {
	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/tv", params)
}

func (c *Client) search(ctx context.Context, path string, params url.Values) ([]searchResult, error) {
	const op = "tmdb search"

	params.Set("api_key", c.apiKey)
	params.Set("include_adult", "false")
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, services.WrapError(services.KindInternal, op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.WrapError(services.KindCatalogueTransient, op, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.WrapError(services.KindCatalogueTransient, op, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := services.KindCataloguePermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = services.KindCatalogueTransient
		}
		return nil, services.NewError(kind, op, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.WrapError(services.KindCatalogueTransient, op, "decode response", err)
	}
	return parsed.Results, nil
}
