package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const chargeSessionsPath = "/v1/chargeSessions"

// ChargeSession is one element of the validated charge-session array. The
// vendor adds fields without notice, so it stays an open mapping.
type ChargeSession map[string]any

// Mode returns the session mode, or the empty string when absent.
func (s ChargeSession) Mode() string {
	mode, _ := s["mode"].(string)
	return mode
}

type OhmeAPI interface {
	FetchSessions(ctx context.Context, firebaseToken string) ([]ChargeSession, error)
}

// OhmeAPIImpl talks to the Ohme cloud API. The minimum schema is compiled
// once per process on first use.
type OhmeAPIImpl struct {
	Config *Config
	Sender RequestSender

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
}

// CreateHeaders returns the fixed header set for Ohme API requests. The
// identity-mimicking values match the official iOS client.
func CreateHeaders(firebaseToken string) (map[string]string, error) {
	if firebaseToken == "" {
		return nil, &InvalidArgumentError{Name: "firebaseToken", Reason: "must be a non-empty string"}
	}
	return map[string]string{
		"Connection":      "keep-alive",
		"Accept":          "*/*",
		"User-Agent":      "OhmE/543 CFNetwork/1474 Darwin/23.0.0",
		"Accept-Language": "en-GB,en;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
		"Authorization":   "Firebase " + firebaseToken,
	}, nil
}

// ResolveEndpoint joins the configured base URL with the charge sessions
// path.
func (a *OhmeAPIImpl) ResolveEndpoint() (string, error) {
	if a.Config.APIBase == "" {
		return "", &ConfigurationError{Key: "ohme_api_base"}
	}
	return url.JoinPath(a.Config.APIBase, chargeSessionsPath)
}

// FetchSessions retrieves and validates the charge session list. Every
// failure is logged with its diagnostic context and returned unchanged.
func (a *OhmeAPIImpl) FetchSessions(ctx context.Context, firebaseToken string) ([]ChargeSession, error) {
	sessions, err := a.fetchSessions(ctx, firebaseToken)
	if err != nil {
		log.Errorf("failed to fetch or validate charging sessions: %s", err.Error())
		return nil, err
	}
	return sessions, nil
}

func (a *OhmeAPIImpl) fetchSessions(ctx context.Context, firebaseToken string) ([]ChargeSession, error) {
	headers, err := CreateHeaders(firebaseToken)
	if err != nil {
		return nil, err
	}
	endpoint, err := a.ResolveEndpoint()
	if err != nil {
		return nil, err
	}

	resp, err := a.Sender.Send(ctx, "GET", endpoint, headers, nil, nil)
	if err != nil {
		var sendErr *TransportError
		if errors.As(err, &sendErr) && sendErr.Body != "" {
			if msg := gjson.Get(sendErr.Body, "message"); msg.Exists() {
				log.Errorf("ohme api reported: %s", msg.String())
			}
		}
		return nil, err
	}
	if resp.JSON == nil {
		return nil, fmt.Errorf("no json field in response from %s: %s", endpoint, strings.TrimSpace(string(resp.RawData)))
	}

	schema, err := a.minimumSchema()
	if err != nil {
		return nil, err
	}
	return ValidateSessions(schema, resp.JSON)
}

func (a *OhmeAPIImpl) minimumSchema() (*jsonschema.Schema, error) {
	a.schemaOnce.Do(func() {
		a.schema, a.schemaErr = LoadMinimumSchema(a.Config.SchemaFile)
	})
	return a.schema, a.schemaErr
}
