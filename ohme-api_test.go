package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateHeaders(t *testing.T) {
	headers, err := CreateHeaders("test_token_1")
	assert.NoError(t, err)
	assert.Equal(t, "keep-alive", headers["Connection"])
	assert.Equal(t, "*/*", headers["Accept"])
	assert.Equal(t, "OhmE/543 CFNetwork/1474 Darwin/23.0.0", headers["User-Agent"])
	assert.Equal(t, "en-GB,en;q=0.9", headers["Accept-Language"])
	assert.Equal(t, "gzip, deflate, br", headers["Accept-Encoding"])
	assert.Equal(t, "Firebase test_token_1", headers["Authorization"])
}

func TestCreateHeadersEmptyToken(t *testing.T) {
	_, err := CreateHeaders("")
	var argErr *InvalidArgumentError
	assert.ErrorAs(t, err, &argErr)
	assert.Equal(t, "firebaseToken", argErr.Name)
}

func TestResolveEndpoint(t *testing.T) {
	api := &OhmeAPIImpl{Config: &Config{APIBase: "http://example.com"}}
	endpoint, err := api.ResolveEndpoint()
	assert.NoError(t, err)
	assert.Equal(t, "http://example.com/v1/chargeSessions", endpoint)
}

func TestResolveEndpointMissingBase(t *testing.T) {
	api := &OhmeAPIImpl{Config: &Config{}}
	_, err := api.ResolveEndpoint()
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
	assert.Equal(t, "ohme_api_base", confErr.Key)
}

func testAPIConfig() *Config {
	return &Config{
		APIBase:    "http://example.com",
		SchemaFile: "ohme_minimum_schema.json",
	}
}

func TestFetchSessions(t *testing.T) {
	sender := &RequestSenderMock{}
	sender.On("Send", mock.Anything, "GET", "http://example.com/v1/chargeSessions", mock.Anything, mock.Anything, mock.Anything).
		Return(NewTestResponse(200, `[{"mode": "CALCULATING"}]`), nil)

	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	sessions, err := api.FetchSessions(context.Background(), "sample_token")
	assert.NoError(t, err)
	assert.Equal(t, []ChargeSession{{"mode": "CALCULATING"}}, sessions)
	sender.AssertExpectations(t)
}

func TestFetchSessionsSendsAuthHeader(t *testing.T) {
	sender := &RequestSenderMock{}
	sender.On("Send", mock.Anything, "GET", mock.Anything, mock.MatchedBy(func(headers map[string]string) bool {
		return headers["Authorization"] == "Firebase sample_token"
	}), mock.Anything, mock.Anything).
		Return(NewTestResponse(200, `[]`), nil)

	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	sessions, err := api.FetchSessions(context.Background(), "sample_token")
	assert.NoError(t, err)
	assert.Empty(t, sessions)
	sender.AssertExpectations(t)
}

func TestFetchSessionsSchemaViolation(t *testing.T) {
	sender := &RequestSenderMock{}
	sender.On("Send", mock.Anything, "GET", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(NewTestResponse(200, `[{"mode": 123}]`), nil)

	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	_, err := api.FetchSessions(context.Background(), "sample_token")
	var valErr *SchemaValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Detail, "string")
}

func TestFetchSessionsNoJSONBody(t *testing.T) {
	sender := &RequestSenderMock{}
	sender.On("Send", mock.Anything, "GET", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(NewTestResponse(200, "<html>maintenance</html>"), nil)

	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	_, err := api.FetchSessions(context.Background(), "sample_token")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no json field in response")
}

func TestFetchSessionsTransportErrorRethrownUnchanged(t *testing.T) {
	sendErr := &TransportError{URL: "http://example.com/v1/chargeSessions", Err: errors.New("connection refused")}
	sender := &RequestSenderMock{}
	sender.On("Send", mock.Anything, "GET", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, sendErr)

	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	_, err := api.FetchSessions(context.Background(), "sample_token")
	assert.Equal(t, error(sendErr), err)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestFetchSessionsEmptyToken(t *testing.T) {
	sender := &RequestSenderMock{}
	api := &OhmeAPIImpl{Config: testAPIConfig(), Sender: sender}
	_, err := api.FetchSessions(context.Background(), "")
	var argErr *InvalidArgumentError
	assert.ErrorAs(t, err, &argErr)
	sender.AssertNotCalled(t, "Send")
}

func TestEndToEndInstallationFlow(t *testing.T) {
	ohmeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chargeSessions", r.URL.Path)
		assert.Equal(t, "Firebase e2e_token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"mode": "CALCULATING"}]`))
	}))
	defer ohmeServer.Close()

	registerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test_device_token", r.PostForm.Get("device"))
		w.Write([]byte("token=e2e_token"))
	}))
	defer registerServer.Close()

	client := NewHTTPClient()
	auth := &InstallationAuth{Config: GetConfig(), Sender: client, RegisterURL: registerServer.URL}
	token, err := auth.ObtainToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "e2e_token", token)

	api := &OhmeAPIImpl{
		Config: &Config{APIBase: ohmeServer.URL, SchemaFile: "ohme_minimum_schema.json"},
		Sender: client,
	}
	sessions, err := api.FetchSessions(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, []ChargeSession{{"mode": "CALCULATING"}}, sessions)

	active, anomalies := IsAnySessionActive(sessions)
	assert.True(t, active)
	assert.Empty(t, anomalies)
}

func TestEndToEndTransportFailure(t *testing.T) {
	ohmeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ohmeServer.Close()

	api := &OhmeAPIImpl{
		Config: &Config{APIBase: ohmeServer.URL, SchemaFile: "ohme_minimum_schema.json"},
		Sender: NewHTTPClient(),
	}
	_, err := api.FetchSessions(context.Background(), "sample_token")
	var sendErr *TransportError
	assert.ErrorAs(t, err, &sendErr)
}
