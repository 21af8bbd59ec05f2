package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/pkg/storage"
	"github.com/qs3c/persona_go_server/internal/pkg/workflow"
)

// triggerRecorder 假工作流引擎：记录收到的任务，可切换为拒单
type triggerRecorder struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
	fail     bool
}

func (r *triggerRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&payload); err == nil {
			r.payloads = append(r.payloads, payload)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (r *triggerRecorder) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *triggerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *triggerRecorder) last() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		return nil
	}
	return r.payloads[len(r.payloads)-1]
}

func newTestWorkflowClient(t *testing.T, recorder *triggerRecorder) *workflow.Client {
	t.Helper()

	server := httptest.NewServer(recorder.handler())
	t.Cleanup(server.Close)

	return workflow.NewClient(&config.WorkflowConfig{
		InfluencerTriggerURL: server.URL + "/influencer",
		ImageTriggerURL:      server.URL + "/image",
		ChatTriggerURL:       server.URL + "/chat",
		CallbackSecret:       "test-secret",
		CallbackBaseURL:      "http://backend.test",
		TimeoutSeconds:       5,
	})
}

func newTestStorage(t *testing.T) *storage.Local {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir(), "/media")
	require.NoError(t, err)
	return store
}

// newImageServer 提供可下载的假图片
func newImageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}
