package homeassistant

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/infra"
)

const (
	defaultTimeout = 15 * time.Second

	// sendWindow is how long a fire-and-forget service call waits for the
	// response once the request is on the wire.
	sendWindow = 10 * time.Millisecond
)

type Config struct {
	BaseURL   string
	Token     string
	VerifySSL bool
	UserAgent string
}

type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	retry      infra.RetryConfig
	sendWindow time.Duration
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		//nolint:gosec // Opt-in through ssl_verify: false for self-signed hubs
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout, Transport: transport},
		retry:      infra.DefaultRetryConfig(),
		sendWindow: sendWindow,
		logger:     logger,
	}
}

// GetState fetches one entity from GET states/<id>.
func (c *Client) GetState(ctx context.Context, entityID string) (*domain.State, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/states/"+entityID, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching state: %w", err)
	}

	var st domain.State
	if err := json.Unmarshal(resp, &st); err != nil {
		return nil, fmt.Errorf("parsing state of %s: %w", entityID, err)
	}
	if st.Attributes == nil {
		st.Attributes = map[string]any{}
	}

	return &st, nil
}

// GetStates fetches every entity from GET states.
func (c *Client) GetStates(ctx context.Context) ([]domain.State, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/states", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching states: %w", err)
	}

	var states []domain.State
	if err := json.Unmarshal(resp, &states); err != nil {
		return nil, fmt.Errorf("parsing states: %w", err)
	}
	for i := range states {
		if states[i].Attributes == nil {
			states[i].Attributes = map[string]any{}
		}
	}

	return states, nil
}

// CallService posts data to services/<domain>/<service>. service uses the
// hub's "light.turn_on" form. With wait unset the call returns as soon as
// the request is written and a short response window has passed; a slow
// response is not an error.
func (c *Client) CallService(ctx context.Context, service string, data map[string]any, wait bool) error {
	svcDomain, svcName, ok := strings.Cut(service, ".")
	if !ok || svcDomain == "" || svcName == "" {
		return fmt.Errorf("invalid service format: %s", service)
	}
	path := fmt.Sprintf("/services/%s/%s", svcDomain, svcName)

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("calling service", "service", service, "data", string(body), "wait", wait)

	if wait {
		if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
			return fmt.Errorf("calling service %s: %w", service, err)
		}
		return nil
	}

	if err := c.send(ctx, path, body); err != nil {
		return fmt.Errorf("calling service %s: %w", service, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return infra.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		return checkStatus(resp.StatusCode, respBody)
	})

	if retryErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHubCommunication, retryErr)
	}

	return respBody, nil
}

// send writes the request and gives the hub sendWindow to answer. The
// request runs detached from ctx once written so the hub still receives it
// when the caller returns; the late response is drained and logged.
func (c *Client) send(ctx context.Context, path string, body []byte) error {
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	wrote := make(chan struct{})
	var wroteOnce sync.Once
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				wroteOnce.Do(func() { close(wrote) })
			}
		},
	}

	req, err := c.newRequest(httptrace.WithClientTrace(reqCtx, trace), http.MethodPost, path, body)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.roundTrip(req)
	}()

	select {
	case err := <-done:
		cancel()
		return hubError(err)
	case <-ctx.Done():
		cancel()
		return hubError(ctx.Err())
	case <-wrote:
	}

	timer := time.NewTimer(c.sendWindow)
	defer timer.Stop()

	select {
	case err := <-done:
		cancel()
		return hubError(err)
	case <-timer.C:
		c.logger.Debug("request sent without waiting for response", "path", path)
		go func() {
			defer cancel()
			if err := <-done; err != nil {
				c.logger.Warn("service call failed after send", "path", path, "error", err)
			}
		}()
		return nil
	}
}

func (c *Client) roundTrip(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return checkStatus(resp.StatusCode, respBody)
}

func checkStatus(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return infra.Permanent(fmt.Errorf("unauthorized: check your Home Assistant token"))
	}

	if infra.IsRetryableHTTPStatus(status) {
		return fmt.Errorf("home assistant API error %d (retryable): %s", status, string(body))
	}

	if status >= 400 {
		return infra.Permanent(fmt.Errorf("home assistant API error %d: %s", status, string(body)))
	}

	return nil
}

func hubError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrHubCommunication, err)
}
