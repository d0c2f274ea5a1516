// Package coiote is a minimal client for the Coiote DM v3 REST API: task
// scheduling from templates, deregistered session triggers and device lookup.
package coiote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lwm2mbridge/pkg/models"

	"github.com/hashicorp/go-cleanhttp"
)

// ErrInvalidEndpointName is returned for endpoint names that cannot be placed
// in a quoted search criterion.
var ErrInvalidEndpointName = errors.New("endpoint name must not contain a single quote")

// Response is the raw status and body of a Coiote DM call.
type Response struct {
	StatusCode int
	Body       string
}

// TransportError is a call that never produced an HTTP status.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request to Coiote DM timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: request to Coiote DM failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to one Coiote DM installation.
type Client struct {
	baseURI    string
	httpClient *http.Client
	auth       Authenticator
}

// NewClient creates a client for baseURI (…/api/coiotedm/v3). Every call is
// bounded by timeout.
func NewClient(baseURI string, auth Authenticator, timeout time.Duration) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	if tlsConfig := auth.TLSConfig(); tlsConfig != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.TLSClientConfig = tlsConfig
		}
	}

	return &Client{
		baseURI:    baseURI,
		httpClient: httpClient,
		auth:       auth,
	}
}

// ScheduleTask creates a task from a template for the device. Coiote answers 201 on success.
func (c *Client) ScheduleTask(ctx context.Context, deviceID string, task models.TaskTemplateRequest) (Response, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal task: %w", err)
	}
	return c.send(ctx, "schedule task", http.MethodPost, "/tasksFromTemplates/device/"+url.PathEscape(deviceID), body)
}

// AllowDeregistered triggers a session with a device even if it is deregistered.
// Coiote answers 200 on success.
func (c *Client) AllowDeregistered(ctx context.Context, deviceID string) (Response, error) {
	return c.send(ctx, "allow deregistered", http.MethodPost, "/sessions/"+url.PathEscape(deviceID)+"/allow-deregistered", nil)
}

// FindDevices returns the ids of devices registered with the endpoint name.
func (c *Client) FindDevices(ctx context.Context, endpointName string) ([]string, error) {
	if strings.Contains(endpointName, "'") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpointName, endpointName)
	}

	query := url.Values{}
	query.Set("searchCriteria", fmt.Sprintf("properties.endpointName eq '%s'", endpointName))

	resp, err := c.send(ctx, "find devices", http.MethodGet, "/devices?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device lookup responded with %d: %s", resp.StatusCode, resp.Body)
	}

	var ids []string
	if err := json.Unmarshal([]byte(resp.Body), &ids); err != nil {
		return nil, fmt.Errorf("failed to parse device lookup response: %w", err)
	}
	return ids, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, body []byte) (Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURI+path, reader)
	if err != nil {
		return Response{}, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	slog.Debug("Calling Coiote DM", "component", "CoioteClient", "op", op, "method", method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &TransportError{Op: op, Timeout: isTimeout(err), Err: err}
	}

	return Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
