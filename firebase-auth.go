package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	// firebaseRegisterURL is the FCM token registration endpoint used by the
	// official Ohme iOS client.
	firebaseRegisterURL = "https://fcmtoken.googleapis.com/register"
	// firebaseSignInURL is the identitytoolkit password sign-in endpoint.
	firebaseSignInURL = "https://www.googleapis.com/identitytoolkit/v3/relyingparty/verifyPassword"

	firebaseClientMeta = "apple-platform/ios apple-sdk/20C52 appstore/true deploy/cocoapods device/iPhone15,2 fire-abt/8.2.0 fire-analytics/8.1.1 fire-auth/8.2.0 fire-dl/8.2.0 fire-fcm/8.2.0 fire-install/8.2.0 fire-ios/8.2.0 fire-rc/8.2.0 firebase-crashlytics/8.2.0 os-version/17.0.3 xcode/14C18"
	ohmeBundleID       = "io.ohme.ios.OhmE"
	firebaseUserAgent  = "Ohme/543 CFNetwork/1474 Darwin/23.0.0"
)

// TokenProvider produces something the Ohme client can turn into an
// Authorization header.
type TokenProvider interface {
	ObtainToken(ctx context.Context) (string, error)
}

// FirebaseToken is the identity provider's password sign-in response. All
// three fields are required; ExpiresIn is a numeric lifetime expressed as a
// string.
type FirebaseToken struct {
	IDToken      string `json:"idToken" validate:"required"`
	ExpiresIn    string `json:"expiresIn" validate:"required,number"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// InstallationAuth exchanges the stored device and installation tokens for an
// opaque token via the FCM registration endpoint. The response body is a
// key=value string, not JSON.
type InstallationAuth struct {
	Config *Config
	Sender RequestSender
	// RegisterURL overrides the production endpoint in tests.
	RegisterURL string
}

func (a *InstallationAuth) authHeaders() (map[string]string, error) {
	if a.Config.FirebaseToken == "" {
		return nil, &ConfigurationError{Key: "ohme_firebase_token"}
	}
	if a.Config.InstallationToken == "" {
		return nil, &ConfigurationError{Key: "ohme_firebase_installation_token"}
	}
	if a.Config.DeviceToken == "" {
		return nil, &ConfigurationError{Key: "ohme_firebase_device_token"}
	}
	return map[string]string{
		"Accept":                             "*/*",
		"X-firebase-client":                  firebaseClientMeta,
		"Authorization":                      fmt.Sprintf("AidLogin %s:%s", a.Config.DeviceToken, a.Config.InstallationToken),
		"X-firebase-client-log-type":         "0",
		"Accept-Encoding":                    "gzip, deflate, br",
		"Accept-Language":                    "en-GB,en;q=0.9",
		"app":                                ohmeBundleID,
		"Content-Type":                       "application/x-www-form-urlencoded",
		"User-Agent":                         firebaseUserAgent,
		"Connection":                         "keep-alive",
		"info":                               "",
		"x-goog-firebase-installations-auth": a.Config.FirebaseToken,
	}, nil
}

func (a *InstallationAuth) authBody() (url.Values, error) {
	if a.Config.DeviceToken == "" {
		return nil, &ConfigurationError{Key: "ohme_firebase_device_token"}
	}
	body := url.Values{}
	body.Set("X-osv", "17.0.3")
	body.Set("device", a.Config.DeviceToken)
	body.Set("X-scope", "*")
	body.Set("plat", "2")
	body.Set("app", ohmeBundleID)
	body.Set("app_ver", "1.28.1")
	body.Set("X-cliv", "fiid-8.2.0")
	body.Set("sender", "206163667850")
	body.Set("X-subtype", "206163667850")
	body.Set("appid", "f1TW3-vVsEbwuIuDui2MoQ")
	body.Set("gmp_app_id", "1:206163667850:ios:6f2cd746818dd6de")
	return body, nil
}

func (a *InstallationAuth) registerURL() string {
	if a.RegisterURL != "" {
		return a.RegisterURL
	}
	return firebaseRegisterURL
}

// ObtainToken posts the registration form and extracts the opaque token from
// the key=value response body.
func (a *InstallationAuth) ObtainToken(ctx context.Context) (string, error) {
	headers, err := a.authHeaders()
	if err != nil {
		return "", err
	}
	body, err := a.authBody()
	if err != nil {
		return "", err
	}

	resp, err := a.Sender.Send(ctx, "POST", a.registerURL(), headers, nil, strings.NewReader(body.Encode()))
	if err != nil {
		return "", fmt.Errorf("firebase registration request failed: %w", err)
	}

	// Body looks like token=f1TW3... or error=Missing+registration+token.
	text := strings.TrimSpace(string(resp.RawData))
	key, value, found := strings.Cut(text, "=")
	if !found || key != "token" {
		exchErr := &IdentityExchangeError{Reason: "error getting firebase token", Raw: text}
		log.Error(exchErr.Error())
		return "", exchErr
	}
	return value, nil
}

// PasswordAuth signs in with username and password against the identity
// provider and hands out the resulting ID token.
type PasswordAuth struct {
	Config *Config
	Sender RequestSender
	// SignInURL overrides the production endpoint in tests.
	SignInURL string
}

type passwordSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

func (a *PasswordAuth) signInURL() string {
	if a.SignInURL != "" {
		return a.SignInURL
	}
	return firebaseSignInURL
}

// SignIn performs the password grant and returns the full token bundle.
func (a *PasswordAuth) SignIn(ctx context.Context) (*FirebaseToken, error) {
	if a.Config.Username == "" {
		return nil, &ConfigurationError{Key: "ohme_username"}
	}
	if a.Config.Password == "" {
		return nil, &ConfigurationError{Key: "ohme_password"}
	}
	if a.Config.FirebaseSDKKey == "" {
		return nil, &ConfigurationError{Key: "ohme_firebase_sdk_key"}
	}

	headers := map[string]string{
		"Content-Type":            "application/json",
		"Accept":                  "*/*",
		"X-Ios-Bundle-Identifier": ohmeBundleID,
		"X-Client-Version":        "iOS/FirebaseSDK/8.2.0/FirebaseCore-iOS",
		"User-Agent":              firebaseUserAgent,
	}
	payload, err := json.Marshal(&passwordSignInRequest{
		Email:             a.Config.Username,
		Password:          a.Config.Password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("key", a.Config.FirebaseSDKKey)

	resp, err := a.Sender.Send(ctx, "POST", a.signInURL(), headers, params, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("firebase sign-in request failed: %w", err)
	}
	if resp.JSON == nil {
		exchErr := &IdentityExchangeError{Reason: "no json body in sign-in response", Raw: strings.TrimSpace(string(resp.RawData))}
		log.Error(exchErr.Error())
		return nil, exchErr
	}

	var token FirebaseToken
	if err := json.Unmarshal(resp.RawData, &token); err != nil {
		return nil, fmt.Errorf("could not decode sign-in response: %w", err)
	}
	if err := validator.New().Struct(&token); err != nil {
		exchErr := &IdentityExchangeError{Reason: "sign-in response is missing required token fields", Err: err}
		log.Error(exchErr.Error())
		return nil, exchErr
	}

	if parsed, _, err := jwt.NewParser().ParseUnverified(token.IDToken, jwt.MapClaims{}); err == nil {
		if exp, expErr := parsed.Claims.GetExpirationTime(); expErr == nil && exp != nil {
			log.Debugf("id token expires at %s", exp.Time)
		}
	}
	return &token, nil
}

func (a *PasswordAuth) ObtainToken(ctx context.Context) (string, error) {
	token, err := a.SignIn(ctx)
	if err != nil {
		return "", err
	}
	return token.IDToken, nil
}
