package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPClientSendJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "value1", r.URL.Query().Get("key1"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "OK"}`))
	}))
	defer server.Close()

	params := url.Values{}
	params.Set("key1", "value1")
	headers := map[string]string{"Authorization": "Bearer token"}

	resp, err := NewHTTPClient().Send(context.Background(), "GET", server.URL, headers, params, nil)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []byte(`{"status": "OK"}`), resp.RawData)
	assert.Equal(t, map[string]any{"status": "OK"}, resp.JSON)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
}

func TestHTTPClientSendNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	resp, err := NewHTTPClient().Send(context.Background(), "GET", server.URL, nil, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []byte("not json"), resp.RawData)
	assert.Nil(t, resp.JSON)
}

func TestHTTPClientSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream broke"))
	}))
	defer server.Close()

	_, err := NewHTTPClient().Send(context.Background(), "GET", server.URL, nil, nil, nil)
	var sendErr *TransportError
	assert.ErrorAs(t, err, &sendErr)
	assert.Equal(t, 500, sendErr.StatusCode)
	assert.Contains(t, sendErr.Body, "upstream broke")
	assert.Contains(t, err.Error(), server.URL)
}

func TestHTTPClientSendConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewHTTPClient().Send(context.Background(), "GET", server.URL, nil, nil, nil)
	var sendErr *TransportError
	assert.ErrorAs(t, err, &sendErr)
	assert.Equal(t, 0, sendErr.StatusCode)
	assert.NotNil(t, sendErr.Unwrap())
}
