package coiote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lwm2mbridge/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/api/coiotedm/v3"

func TestScheduleTask(t *testing.T) {
	var got models.TaskTemplateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, base+"/tasksFromTemplates/device/thing-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pass)

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"task-1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("user", "secret"), time.Second)
	task := models.TaskTemplateRequest{
		TemplateName: "AWSread",
		Config:       models.TaskConfig{Parameters: []models.Parameter{{Name: "keys", Value: `3/0/"1"`}}},
	}

	resp, err := client.ScheduleTask(context.Background(), "thing-1", task)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"id":"task-1"}`, resp.Body)
	assert.Equal(t, task, got)
}

func TestAllowDeregistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, base+"/sessions/thing-1/allow-deregistered", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("user", "secret"), time.Second)
	resp, err := client.AllowDeregistered(context.Background(), "thing-1")
	require.NoError(t, err)
	assert.Equal(t, Response{StatusCode: http.StatusOK, Body: `{}`}, resp)
}

func TestHTTPErrorIsNotTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("u", "p"), time.Second)
	resp, err := client.AllowDeregistered(context.Background(), "thing-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL+base, NewBasicAuth("u", "p"), 50*time.Millisecond)
	_, err := client.AllowDeregistered(context.Background(), "thing-1")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout)
}

func TestConnectionRefusedIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url+base, NewBasicAuth("u", "p"), time.Second)
	_, err := client.AllowDeregistered(context.Background(), "thing-1")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.Timeout)
}

func TestFindDevices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, base+"/devices", r.URL.Path)
		assert.Equal(t, "properties.endpointName eq 'urn:dev:1'", r.URL.Query().Get("searchCriteria"))
		_, _ = w.Write([]byte(`["dev-42"]`))
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("u", "p"), time.Second)
	ids, err := client.FindDevices(context.Background(), "urn:dev:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-42"}, ids)
}

func TestFindDevicesRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("u", "p"), time.Second)
	_, err := client.FindDevices(context.Background(), "urn:dev:1")
	assert.Error(t, err)
}

func TestCertificateAuthHeader(t *testing.T) {
	auth := &CertificateAuth{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	auth.Apply(req)

	assert.Equal(t, "Certificate", req.Header.Get("Authorization"))
	assert.NotNil(t, auth.TLSConfig())
}

func TestNewCertificateAuthRejectsGarbage(t *testing.T) {
	_, err := NewCertificateAuth([]byte("not a cert"), []byte("not a key"))
	assert.Error(t, err)
}

func TestFindDevicesRejectsQuotedName(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL+base, NewBasicAuth("u", "p"), time.Second)
	_, err := client.FindDevices(context.Background(), "dev' or 'x' eq 'x")

	assert.ErrorIs(t, err, ErrInvalidEndpointName)
	assert.False(t, called)
}
