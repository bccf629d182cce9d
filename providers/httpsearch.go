package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultSearchTimeout = 30 * time.Second

// HTTPSearch adapts a JSON-over-HTTP search endpoint to the SearchFunc
// shape. The endpoint is queried as GET <endpoint>?q=<query>&n=<num> and
// must answer with a JSON array of {title, snippet, url} objects. String
// opts are appended as extra query parameters.
func HTTPSearch(endpoint string, client *http.Client) SearchFunc {
	if client == nil {
		client = &http.Client{Timeout: defaultSearchTimeout}
	}
	return func(ctx context.Context, query string, numResults int, opts map[string]any) ([]SearchResult, error) {
		target, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("search endpoint %q: %w", endpoint, err)
		}

		values := target.Query()
		values.Set("q", query)
		values.Set("n", strconv.Itoa(numResults))
		for k, v := range opts {
			if s, ok := v.(string); ok {
				values.Set(k, s)
			}
		}
		target.RawQuery = values.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
		}

		var results []SearchResult
		if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
			return nil, fmt.Errorf("decoding search response: %w", err)
		}
		if numResults > 0 && len(results) > numResults {
			results = results[:numResults]
		}
		return results, nil
	}
}
