package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Go Developer","url":"https://jobs.example/1","content":"Berlin","score":0.9},
			{"title":"Backend Engineer","url":"https://jobs.example/2","content":"Remote","score":0.8},
			{"title":"SRE","url":"https://jobs.example/3","content":"Munich","score":0.7}
		]}`))
	}))
	defer srv.Close()

	c := NewTavilyClient("key", srv.URL)
	results, err := c.Search(context.Background(), "golang jobs berlin", 2)
	require.NoError(t, err)

	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, "golang jobs berlin", got.Query)
	assert.Equal(t, 2, got.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, "Go Developer", results[0].Title)
}

func TestTavilySearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewTavilyClient("key", srv.URL).Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTavilySearchWithoutKey(t *testing.T) {
	_, err := NewTavilyClient("", "").Search(context.Background(), "q", 3)
	require.ErrorIs(t, err, ErrNotConfigured)
}
