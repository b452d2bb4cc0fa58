package main

import "fmt"

// ConfigurationError indicates a required setting is missing or empty.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not set in environment", e.Key)
}

// InvalidArgumentError indicates a malformed call-time input, such as an
// empty token.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}

// TransportError indicates an HTTP or network level failure. StatusCode is
// zero when the exchange failed before a response arrived.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error occurred while sending request to %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP error occurred while sending request to %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaValidationError indicates the payload failed the minimum-shape
// contract.
type SchemaValidationError struct {
	Detail string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", e.Detail)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// IdentityExchangeError indicates a token response missing required fields or
// carrying a provider-reported error string. Raw holds the full response text
// so delimiter and error-code responses stay diagnosable.
type IdentityExchangeError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *IdentityExchangeError) Error() string {
	switch {
	case e.Raw != "":
		return fmt.Sprintf("%s: %s", e.Reason, e.Raw)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *IdentityExchangeError) Unwrap() error { return e.Err }
