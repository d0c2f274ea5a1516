package setup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(uri string) *config.Config {
	return &config.Config{
		CoioteRestURI:         uri,
		AuthMode:              config.AuthModeBasic,
		CoioteUsername:        "user",
		CoiotePassword:        "secret",
		RequestTimeoutSeconds: 2,
		TemplatePrefix:        "AWS",
		TemplateSuffix:        "CertAuth",
		DeviceCacheTTLMinutes: 60,
		ServerAddress:         ":0",
		JWTSecret:             "jwt",
		EncryptionKey:         "1234567890123456789012345678901212345678901234567890123456789012",
		AdminUser:             "admin",
		AdminHash:             "hash",
		SessionDurationHours:  1,
		LogLevel:              "debug",
	}
}

func TestDispatcherEndToEnd(t *testing.T) {
	var paths []string
	var task models.TaskTemplateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/coiotedm/v3/tasksFromTemplates/device/thing-1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&task))
			w.WriteHeader(http.StatusCreated)
		case "/api/coiotedm/v3/sessions/thing-1/allow-deregistered":
			_, _ = w.Write([]byte(`{"status":"queued"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	d, cleanup, err := Dispatcher(context.Background(), testConfig(server.URL))
	require.NoError(t, err)
	defer cleanup()

	var req models.OperationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"operation":"readComposite","thingName":"thing-1","keys":["5.0","3.0.1","3.0"]}`), &req))

	result := d.Dispatch(context.Background(), req)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, `{"status":"queued"}`, result.Body)
	assert.Len(t, paths, 2)
	assert.Equal(t, "AWSreadCompositeCertAuth", task.TemplateName)
	keys, _ := task.Param("keys")
	assert.Equal(t, "3.0,5.0", keys)
}

func TestDispatcherRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("")
	_, _, err := Dispatcher(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger := NewLogger(io.Discard, "nonsense")
	assert.True(t, logger.Enabled(context.Background(), 0))
	assert.False(t, logger.Enabled(context.Background(), -4))
}
