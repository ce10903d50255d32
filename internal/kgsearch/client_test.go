package kgsearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"query": q.Get("query"),
			"types": q.Get("types"),
			"key":   q.Get("key"),
			"limit": q.Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"@context": {"@vocab": "http://schema.org/"},
			"@type": "ItemList",
			"itemListElement": [{
				"@type": "EntitySearchResult",
				"result": {"@id": "kg:/m/0k8z", "name": "Apple Inc.", "@type": ["Corporation", "Organization"]},
				"resultScore": 1234.5
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	id, err := c.Lookup(context.Background(), "  Apple & Co ", "Organization")
	require.NoError(t, err)

	assert.Equal(t, "kg:/m/0k8z", id)
	assert.Equal(t, map[string]string{
		"query": "Apple & Co",
		"types": "Organization",
		"key":   "secret",
		"limit": "1",
	}, gotQuery)
}

func TestLookupNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("types"), "empty entity type must not be sent")
		_, _ = w.Write([]byte(`{"itemListElement": []}`))
	}))
	defer srv.Close()

	id, err := NewClient("k", WithEndpoint(srv.URL)).Lookup(context.Background(), "zzqx", "")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestLookupHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithEndpoint(srv.URL)).Lookup(context.Background(), "Paris", "Place")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), `"Paris"`)
}

func TestLookupBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithEndpoint(srv.URL)).Lookup(context.Background(), "Paris", "")
	assert.Error(t, err)
}

func TestLookupEmptyQuery(t *testing.T) {
	_, err := NewClient("k").Lookup(context.Background(), "   ", "")
	assert.Error(t, err)
}
