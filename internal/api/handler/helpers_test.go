package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/pkg/storage"
	"github.com/qs3c/persona_go_server/internal/pkg/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockAuth 绕过 JWT 校验直接注入用户 ID
func mockAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func doJSON(router *gin.Engine, method, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

// fakeEngine 假工作流引擎，记单或拒单
type fakeEngine struct {
	received int
	fail     bool
}

func (e *fakeEngine) client(t *testing.T) *workflow.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if e.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		e.received++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return workflow.NewClient(&config.WorkflowConfig{
		InfluencerTriggerURL: server.URL + "/influencer",
		ImageTriggerURL:      server.URL + "/image",
		ChatTriggerURL:       server.URL + "/chat",
		CallbackSecret:       "cb-secret",
		CallbackBaseURL:      "http://backend.test",
		TimeoutSeconds:       5,
	})
}

// newImageOrigin 提供可下载的假图片
func newImageOrigin(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newLocalStorage(t *testing.T) *storage.Local {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir(), "/media")
	require.NoError(t, err)
	return store
}

// stripeSignature 按 Stripe 的 t=...,v1=... 方案手工签名
func stripeSignature(secret string, payload []byte, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
