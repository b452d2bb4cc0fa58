package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// NormalizedResponse is the uniform shape every HTTP exchange is reduced to.
// JSON is nil when the body is not valid JSON; that is a representable
// outcome, not an error.
type NormalizedResponse struct {
	StatusCode int
	RawData    []byte
	JSON       any
	Headers    map[string]string
}

// RequestSender sends a single HTTP request and normalizes the response.
type RequestSender interface {
	Send(ctx context.Context, method, target string, headers map[string]string, params url.Values, body io.Reader) (*NormalizedResponse, error)
}

// HTTPClient performs one real network exchange per Send call. No retries;
// the client timeout is the only ceiling on the whole exchange.
type HTTPClient struct {
	Client *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) Send(ctx context.Context, method, target string, headers map[string]string, params url.Values, body io.Reader) (*NormalizedResponse, error) {
	reqID := uuid.NewString()[:8]

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		log.Errorf("[%s] could not build %s request to %s: %s", reqID, method, target, err.Error())
		return nil, err
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debugf("[%s] %s %s", reqID, method, req.URL.Redacted())
	resp, err := c.Client.Do(req)
	if err != nil {
		sendErr := &TransportError{URL: target, Err: err}
		log.Errorf("[%s] %s", reqID, sendErr.Error())
		return nil, sendErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("[%s] could not read response from %s: %s", reqID, target, err.Error())
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sendErr := &TransportError{URL: target, StatusCode: resp.StatusCode, Body: string(raw)}
		log.Errorf("[%s] %s", reqID, sendErr.Error())
		return nil, sendErr
	}

	res := &NormalizedResponse{
		StatusCode: resp.StatusCode,
		RawData:    raw,
		Headers:    normalizeHeaders(resp.Header),
	}
	if gjson.ValidBytes(raw) {
		res.JSON = gjson.ParseBytes(raw).Value()
	}
	return res, nil
}

func normalizeHeaders(h http.Header) map[string]string {
	res := make(map[string]string, len(h))
	for k, v := range h {
		res[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return res
}
