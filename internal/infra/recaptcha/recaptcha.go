// Package recaptcha implements the human-verification gate.
package recaptcha

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

// DefaultSiteVerifyURL is Google's server-side token validation endpoint.
const DefaultSiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var (
	// ErrRejected is returned when the challenge was checked and did not pass.
	ErrRejected = errors.New("challenge rejected")
	// ErrNotConfigured is returned when no secret is available to check challenges.
	ErrNotConfigured = errors.New("verification not configured")
)

func newHTTPClient(timeout time.Duration) *req.Client {
	return req.C().
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)
}

// Client validates reCAPTCHA tokens against siteverify.
type Client struct {
	secret     string
	verifyURL  string
	httpClient *req.Client
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func NewClient(secret, verifyURL string, timeout time.Duration) *Client {
	if verifyURL == "" {
		verifyURL = DefaultSiteVerifyURL
	}
	return &Client{
		secret:     secret,
		verifyURL:  verifyURL,
		httpClient: newHTTPClient(timeout),
	}
}

func (c *Client) Verify(ctx context.Context, token string) error {
	if c.secret == "" {
		return ErrNotConfigured
	}
	var result siteVerifyResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{"secret": c.secret, "response": token}).
		SetSuccessResult(&result).
		Post(c.verifyURL)
	if err != nil {
		return errors.Wrap(err, "call siteverify")
	}
	if !resp.IsSuccessState() {
		return errors.Errorf("siteverify responded with status %v", resp.GetStatusCode())
	}
	if !result.Success {
		return errors.Wrapf(ErrRejected, "error codes %v", result.ErrorCodes)
	}
	return nil
}

// EndpointVerifier posts {"captcha": token} to a verification endpoint; any 2xx means verified.
type EndpointVerifier struct {
	endpoint   string
	httpClient *req.Client
}

func NewEndpointVerifier(endpoint string, timeout time.Duration) *EndpointVerifier {
	return &EndpointVerifier{endpoint: endpoint, httpClient: newHTTPClient(timeout)}
}

func (v *EndpointVerifier) Verify(ctx context.Context, token string) error {
	resp, err := v.httpClient.R().
		SetContext(ctx).
		SetBodyJsonMarshal(map[string]string{"captcha": token}).
		Post(v.endpoint)
	if err != nil {
		return errors.Wrap(err, "call verification endpoint")
	}
	if !resp.IsSuccessState() {
		return errors.Wrapf(ErrRejected, "verification endpoint responded with status %v", resp.GetStatusCode())
	}
	return nil
}

// Static returns the same verdict for every token. Development only.
type Static struct {
	Err error
}

func (s Static) Verify(context.Context, string) error {
	return s.Err
}
