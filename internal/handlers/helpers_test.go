package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/renderer"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/transfer"
	"github.com/damacus/iron-files/internal/utils"
)

const testSession = "0b7c6a64-3f5e-4c1c-9a0e-5b8f7a3e2d11"

func testConfig() services.Configuration {
	return services.Configuration{
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketName:      "files",
	}
}

type harness struct {
	e       *echo.Echo
	factory *services.MemoryFactory
	gateway *services.Gateway
	holder  *session.Holder
	boards  *transfer.Boards
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	factory := services.NewMemoryFactory("files")
	gateway := services.NewGateway(factory, services.RetryConfig{MaxAttempts: 1}, log)
	boards := transfer.NewBoards(0, time.Hour)
	t.Cleanup(boards.CloseAll)

	e := echo.New()
	e.Renderer = renderer.New()
	return &harness{
		e:       e,
		factory: factory,
		gateway: gateway,
		holder:  session.NewHolder(services.EncodedCodec{}, "", 0),
		boards:  boards,
	}
}

func (h *harness) explorer() *browser.Explorer {
	return browser.NewExplorer(h.gateway, zerolog.Nop())
}

func (h *harness) seed(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, h.gateway.Put(context.Background(), testConfig(), key, strings.NewReader("x"), 1, "text/plain"))
	}
}

// withConfig puts what the config loader would have set into the context
func withConfig(c echo.Context) echo.Context {
	c.Set(utils.ContextKeyConfig, testConfig())
	c.Set(utils.ContextKeySession, testSession)
	return c
}

func (h *harness) jsonContext(method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return h.e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func objectKeys(t *testing.T, raw interface{}) []string {
	t.Helper()
	list, ok := raw.([]interface{})
	require.True(t, ok, "objects should be a list, got %T", raw)
	keys := make([]string, 0, len(list))
	for _, item := range list {
		keys = append(keys, item.(map[string]interface{})["key"].(string))
	}
	return keys
}
