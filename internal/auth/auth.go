// Package auth provides OKX API authentication using HMAC-SHA256 signatures.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Request headers carrying the signature.
const (
	HeaderKey        = "OK-ACCESS-KEY"
	HeaderSign       = "OK-ACCESS-SIGN"
	HeaderTimestamp  = "OK-ACCESS-TIMESTAMP"
	HeaderPassphrase = "OK-ACCESS-PASSPHRASE"
)

// TimestampLayout is ISO-8601 UTC with milliseconds and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// LoginPath is the request path signed for websocket logins.
const LoginPath = "/users/self/verify"

var (
	ErrEmptySecret        = errors.New("signing secret is empty")
	ErrMissingCredentials = errors.New("missing credentials")
)

// Credentials holds the API key triple issued by OKX.
type Credentials struct {
	Key        string // API key (OK-ACCESS-KEY)
	Secret     string // HMAC secret, never sent
	Passphrase string // passphrase chosen when the key was created
}

// NewCredentials trims and validates the key triple.
func NewCredentials(key, secret, passphrase string) (*Credentials, error) {
	c := &Credentials{
		Key:        strings.TrimSpace(key),
		Secret:     strings.TrimSpace(secret),
		Passphrase: strings.TrimSpace(passphrase),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports which of the three fields are empty.
func (c *Credentials) Validate() error {
	var missing []string
	if c.Key == "" {
		missing = append(missing, "key")
	}
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.Passphrase == "" {
		missing = append(missing, "passphrase")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// LogValue keeps the secret and passphrase out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("key", redact(c.Key)),
		slog.String("secret", "[redacted]"),
		slog.String("passphrase", "[redacted]"),
	)
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// Timestamp formats t for the OK-ACCESS-TIMESTAMP header.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Sign returns Base64(HMAC-SHA256(timestamp + method + requestPath + body)).
// requestPath must carry the encoded query string exactly as sent.
func Sign(secret, timestamp, method, requestPath, body string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignRequest generates authentication headers for a bodiless request.
func (c *Credentials) SignRequest(method, requestPath string) (map[string]string, error) {
	return c.SignRequestAt(time.Now(), method, requestPath)
}

// SignRequestAt is SignRequest with an explicit signing time. Each attempt of
// a request must be signed afresh; the server rejects stale timestamps.
func (c *Credentials) SignRequestAt(t time.Time, method, requestPath string) (map[string]string, error) {
	ts := Timestamp(t)

	signature, err := Sign(c.Secret, ts, method, requestPath, "")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		HeaderKey:        c.Key,
		HeaderSign:       signature,
		HeaderTimestamp:  ts,
		HeaderPassphrase: c.Passphrase,
	}, nil
}

// LoginArgs is the argument object of a websocket login request.
type LoginArgs struct {
	APIKey     string `json:"apiKey"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
	Sign       string `json:"sign"`
}

// SignLogin builds websocket login arguments. The websocket API uses Unix
// seconds rather than the ISO timestamp of REST requests.
func (c *Credentials) SignLogin(t time.Time) (LoginArgs, error) {
	ts := strconv.FormatInt(t.Unix(), 10)

	signature, err := Sign(c.Secret, ts, "GET", LoginPath, "")
	if err != nil {
		return LoginArgs{}, err
	}

	return LoginArgs{
		APIKey:     c.Key,
		Passphrase: c.Passphrase,
		Timestamp:  ts,
		Sign:       signature,
	}, nil
}
