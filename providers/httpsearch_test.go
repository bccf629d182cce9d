package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSearchQueriesEndpoint(t *testing.T) {
	var gotQuery string
	var gotN string
	var gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotN = r.URL.Query().Get("n")
		gotLang = r.URL.Query().Get("lang")
		json.NewEncoder(w).Encode([]SearchResult{
			{Title: "Go", Snippet: "a language", URL: "https://go.dev"},
			{Title: "Gopher", Snippet: "a rodent", URL: "https://example.com"},
		})
	}))
	defer server.Close()

	search := HTTPSearch(server.URL, server.Client())
	results, err := search(context.Background(), "golang", 5, map[string]any{"lang": "en", "depth": 3})
	require.NoError(t, err)

	assert.Equal(t, "golang", gotQuery)
	assert.Equal(t, "5", gotN)
	assert.Equal(t, "en", gotLang, "string opts become query parameters")
	require.Len(t, results, 2)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
}

func TestHTTPSearchTruncatesToNumResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]SearchResult{
			{Title: "one"}, {Title: "two"}, {Title: "three"},
		})
	}))
	defer server.Close()

	search := HTTPSearch(server.URL, server.Client())
	results, err := search(context.Background(), "q", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "two", results[1].Title)
}

func TestHTTPSearchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	search := HTTPSearch(server.URL, server.Client())
	_, err := search(context.Background(), "q", 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPSearchBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	search := HTTPSearch(server.URL, server.Client())
	_, err := search(context.Background(), "q", 5, nil)
	assert.Error(t, err)
}
