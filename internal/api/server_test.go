package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/mocks"

	"litreview/internal/observability"
	"litreview/internal/workflows"
)

type fakeTemporal struct {
	started   []tclient.StartWorkflowOptions
	inputs    []workflows.ReviewInput
	startErr  error
	progress  workflows.ReviewProgress
	queryErr  error
	queriedID string
}

func (f *fakeTemporal) ExecuteWorkflow(_ context.Context, opts tclient.StartWorkflowOptions, _ interface{}, args ...interface{}) (tclient.WorkflowRun, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, opts)
	f.inputs = append(f.inputs, args[0].(workflows.ReviewInput))
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return(opts.ID)
	run.On("GetRunID").Return("run-1")
	return run, nil
}

func (f *fakeTemporal) QueryWorkflow(_ context.Context, workflowID, _ string, _ string, _ ...interface{}) (converter.EncodedValue, error) {
	f.queriedID = workflowID
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return jsonValue{v: f.progress}, nil
}

type jsonValue struct{ v any }

func (j jsonValue) HasValue() bool { return true }
func (j jsonValue) Get(ptr interface{}) error {
	b, err := json.Marshal(j.v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ptr)
}

func newTestServer(tc *fakeTemporal) http.Handler {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("litreview", reg)
	m.DocumentProcessed("completed")
	return NewServer(tc, "litreview", reg, zerolog.Nop()).Routes()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Message
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestServer(&fakeTemporal{})
	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `litreview_documents_processed_total{status="completed"} 1`)
}

func TestStartReview(t *testing.T) {
	tc := &fakeTemporal{}
	h := newTestServer(tc)
	rec := do(h, http.MethodPost, "/reviews", `{"input_dir":"/data/text","output_path":"/data/answers.json","extract_dir":"/data/fields"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, strings.HasPrefix(out["workflow_id"], "review-"))
	assert.Equal(t, "run-1", out["run_id"])
	require.Len(t, tc.started, 1)
	assert.Equal(t, "litreview", tc.started[0].TaskQueue)
	assert.Equal(t, workflows.ReviewInput{InputDir: "/data/text", OutputPath: "/data/answers.json", ExtractDir: "/data/fields"}, tc.inputs[0])
}

func TestStartNamedReviewUsesStableID(t *testing.T) {
	tc := &fakeTemporal{}
	rec := do(newTestServer(tc), http.MethodPost, "/reviews", `{"name":"Street View","input_dir":"in","output_path":"out.json"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "review-street-view", tc.started[0].ID)
	assert.True(t, tc.started[0].WorkflowExecutionErrorWhenAlreadyStarted)
}

func TestStartReviewRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"malformed", `{"input_dir":`, "Malformed JSON request body."},
		{"missing fields", `{"input_dir":"in"}`, "Missing or invalid fields: OutputPath."},
		{"xml without text dir", `{"xml_dir":"x","input_dir":"in","output_path":"o.json"}`, "Missing or invalid fields: TextDir."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newTestServer(&fakeTemporal{}), http.MethodPost, "/reviews", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			code, msg := errorCode(t, rec)
			assert.Equal(t, "LR-API-4001", code)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestStartReviewAlreadyRunning(t *testing.T) {
	tc := &fakeTemporal{startErr: serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "")}
	rec := do(newTestServer(tc), http.MethodPost, "/reviews", `{"name":"x","input_dir":"in","output_path":"o.json"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "LR-API-4009", code)
}

func TestProgress(t *testing.T) {
	tc := &fakeTemporal{progress: workflows.ReviewProgress{Stage: "answering", Total: 2, Done: 1, PerDocument: map[string]string{"a.txt": "completed", "b.txt": "processing"}}}
	rec := do(newTestServer(tc), http.MethodGet, "/reviews/review-abc/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "review-abc", tc.queriedID)
	var p workflows.ReviewProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, tc.progress, p)
}

func TestProgressErrors(t *testing.T) {
	rec := do(newTestServer(&fakeTemporal{queryErr: serviceerror.NewNotFound("workflow not found")}), http.MethodGet, "/reviews/nope/progress", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(newTestServer(&fakeTemporal{queryErr: errors.New("dial tcp: connection refused")}), http.MethodGet, "/reviews/x/progress", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "LR-API-5020", code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(&fakeTemporal{}), http.MethodDelete, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
