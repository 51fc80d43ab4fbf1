// Package client implements the HTTP clients for the three monitoring
// services. Each client satisfies fanout.SubBackend; the log client
// additionally provides log row context.
package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloudmonitor-grafana-plugin/pkg/metrics"
	"cloudmonitor-grafana-plugin/pkg/models"
	"cloudmonitor-grafana-plugin/pkg/ratelimit"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error represents an error from one monitoring service call.
type Error struct {
	Service models.ServiceType
	Op      string
	Msg     string
	Err     error // Wrapped error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s: %s: %v", e.Service, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s service %s: %s", e.Service, e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// serviceClient is the transport shared by the three clients: endpoint
// handling, request signing, rate limiting, and JSON decoding.
type serviceClient struct {
	service  models.ServiceType
	http     *http.Client
	endpoint string
	secrets  *models.SecretSettings
	limiter  *ratelimit.Limiter
	now      func() time.Time
}

func newServiceClient(service models.ServiceType, httpClient *http.Client, endpoint string, secrets *models.SecretSettings) serviceClient {
	return serviceClient{
		service:  service,
		http:     httpClient,
		endpoint: strings.TrimRight(endpoint, "/"),
		secrets:  secrets,
		limiter:  ratelimit.New(10, 20),
		now:      time.Now,
	}
}

// postJSON signs and issues one POST, decoding the JSON response into dst.
// Every call is recorded in the per-service counters.
func (c *serviceClient) postJSON(ctx context.Context, path string, body, dst interface{}) (err error) {
	start := c.now()
	defer func() { metrics.RecordQuery(c.service, time.Since(start), err) }()

	if err = c.limiter.Wait(ctx); err != nil {
		return &Error{Service: c.service, Op: path, Msg: "rate limiter wait interrupted", Err: err}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Service: c.service, Op: path, Msg: "could not marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Service: c.service, Op: path, Msg: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req, path)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Service: c.service, Op: path, Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{
			Service: c.service,
			Op:      path,
			Msg:     fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	if dst == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &Error{Service: c.service, Op: path, Msg: "could not decode response", Err: err}
	}
	return nil
}

// sign attaches the access-key headers. The signature covers method, path,
// and request date so a replayed request with a different date is rejected by
// the service.
func (c *serviceClient) sign(req *http.Request, path string) {
	date := c.now().UTC().Format(http.TimeFormat)
	mac := hmac.New(sha256.New, []byte(c.secrets.AccessKeySecret))
	fmt.Fprintf(mac, "%s\n%s\n%s", req.Method, path, date)

	req.Header.Set("X-CM-Date", date)
	req.Header.Set("X-CM-Access-Key-Id", c.secrets.AccessKeyID)
	req.Header.Set("X-CM-Signature", hex.EncodeToString(mac.Sum(nil)))
}

// ping probes the service's health endpoint.
func (c *serviceClient) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/ping", nil)
	if err != nil {
		return &Error{Service: c.service, Op: "/api/v1/ping", Msg: "could not build request", Err: err}
	}
	c.sign(req, "/api/v1/ping")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Service: c.service, Op: "/api/v1/ping", Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Service: c.service, Op: "/api/v1/ping", Msg: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// variableOptions is the shared variable lookup response shape.
type variableOptions struct {
	Options []models.VariableOption `json:"options"`
}
