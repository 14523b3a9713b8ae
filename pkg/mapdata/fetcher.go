// Package mapdata provides the road network for the configured region: it
// fetches OSM data on a cache miss, keeps a cache file on disk and shares the
// loaded graph across requests.
package mapdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultOverpassURL is the public Overpass API interpreter endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// ErrFetch marks failures of the external map data service.
var ErrFetch = errors.New("map data fetch failed")

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// Fetcher retrieves raw OSM XML for a named place.
type Fetcher interface {
	Fetch(ctx context.Context, place string) (io.ReadCloser, error)
}

// HTTPClient is the subset of *http.Client the fetcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// OverpassFetcher queries the Overpass API for all highways inside the
// administrative area named by the place.
type OverpassFetcher struct {
	URL     string
	Client  HTTPClient
	Timeout time.Duration // server-side query timeout and client deadline; 0 means none
}

// NewOverpassFetcher returns a fetcher for endpoint using http.DefaultClient.
func NewOverpassFetcher(endpoint string, timeout time.Duration) *OverpassFetcher {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	return &OverpassFetcher{URL: endpoint, Client: http.DefaultClient, Timeout: timeout}
}

// Fetch runs the area query and returns the response body. The caller closes it.
func (f *OverpassFetcher) Fetch(ctx context.Context, place string) (io.ReadCloser, error) {
	query := OverpassQuery(place, f.Timeout)

	var cancel context.CancelFunc = func() {}
	if f.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
	}

	body := bytes.NewBufferString("data=" + url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.Client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: overpass returned %s: %s", ErrFetch, resp.Status, strings.TrimSpace(string(msg)))
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnClose releases the request context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// OverpassQuery builds the XML query for every highway way in the area whose
// name is the first comma-separated part of place, plus the nodes they use.
func OverpassQuery(place string, timeout time.Duration) string {
	name, _, _ := strings.Cut(place, ",")
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `"`, `\"`)

	secs := int(timeout / time.Second)
	if secs <= 0 {
		secs = 180
	}

	return fmt.Sprintf(`[out:xml][timeout:%d];
area["name"="%s"]["boundary"="administrative"]->.searchArea;
way["highway"](area.searchArea);
(._;>;);
out body;`, secs, name)
}
