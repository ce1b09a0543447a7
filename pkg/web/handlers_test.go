package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/capability/local"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence/file"
	"github.com/weftlabs/weft/pkg/runner"
	"github.com/weftlabs/weft/pkg/services"
	"github.com/weftlabs/weft/pkg/testutil"
	"github.com/weftlabs/weft/pkg/uploader"
	"github.com/weftlabs/weft/pkg/web"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestApp(t *testing.T) (*fiber.App, *services.Workflow) {
	t.Helper()

	logger := discardLogger()
	persistence := file.NewPersistence(t.TempDir())
	workflowService := services.NewWorkflow(persistence)

	registry := capability.NewRegistry(logger)
	registry.Register(local.New(models.NodeKindText))
	registry.Register(local.New(models.NodeKindUploadImage))
	registry.Register(local.New(models.NodeKindUploadVideo))

	executionService := services.NewExecution(persistence, runner.New(registry, nil, logger), logger)
	uploaderClient := uploader.NewClient(uploader.Config{BaseURL: "http://127.0.0.1:0"}, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(workflowService, executionService, uploaderClient, validate, registry, logger)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app, workflowService
}

func createWorkflow(t *testing.T, service *services.Workflow, workflow *models.Workflow) *models.Workflow {
	t.Helper()

	created, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)

	return created
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateWorkflowRequest{Title: "Test Canvas"},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var workflow models.Workflow

				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.Equal(t, "Test Canvas", workflow.Title)
				assert.Equal(t, models.DefaultCredits, workflow.Credits)
				assert.NotNil(t, workflow.Nodes)
				assert.NotNil(t, workflow.Edges)
			},
		},
		{
			name: "creation with nodes and edges",
			requestBody: web.CreateWorkflowRequest{
				Title: "Wired Canvas",
				Nodes: []*models.Node{
					testutil.CreateTestNode(testutil.WithID("text-1"), testutil.WithText("hello")),
					testutil.CreateTestNode(testutil.WithID("text-2")),
				},
				Edges: []*models.Edge{testutil.CreateTestEdge("text-1", "text-2")},
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var workflow models.Workflow

				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.Len(t, workflow.Nodes, 2)
				assert.Len(t, workflow.Edges, 1)
			},
		},
		{
			name:           "missing title",
			requestBody:    web.CreateWorkflowRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "cyclic graph rejected",
			requestBody: web.CreateWorkflowRequest{
				Title: "Cyclic",
				Nodes: []*models.Node{
					testutil.CreateTestNode(testutil.WithID("a")),
					testutil.CreateTestNode(testutil.WithID("b")),
				},
				Edges: []*models.Edge{
					testutil.CreateTestEdge("a", "b"),
					testutil.CreateTestEdge("b", "a"),
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			requestBody:    "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)

			var req *http.Request
			if raw, ok := tt.requestBody.(string); ok {
				req = httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(raw))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = jsonRequest(t, http.MethodPost, "/workflows", tt.requestBody)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	app, service := setupTestApp(t)

	createWorkflow(t, service, testutil.CreateTestWorkflow())
	createWorkflow(t, service, testutil.CreateTestWorkflow())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Workflows []*models.Workflow `json:"workflows"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Len(t, result.Workflows, 2)
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+strconv.FormatInt(created.ID, 10), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&workflow))
	assert.Equal(t, created.Title, workflow.Title)
	assert.Len(t, workflow.Nodes, 2)
}

func TestAPIHandlers_GetWorkflow_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/404", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetWorkflow_InvalidID(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	title := "Renamed"
	req := jsonRequest(t, http.MethodPatch, "/workflows/"+strconv.FormatInt(created.ID, 10),
		web.UpdateWorkflowRequest{Title: &title})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&workflow))
	assert.Equal(t, "Renamed", workflow.Title)

	// Omitted fields leave the stored graph untouched.
	assert.Len(t, workflow.Nodes, 2)
	assert.Len(t, workflow.Edges, 1)
}

func TestAPIHandlers_UpdateWorkflow_ReplacesGraph(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	req := jsonRequest(t, http.MethodPatch, "/workflows/"+strconv.FormatInt(created.ID, 10),
		web.UpdateWorkflowRequest{
			Nodes: []*models.Node{testutil.CreateTestNode(testutil.WithID("solo"))},
			Edges: []*models.Edge{},
		})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&workflow))
	assert.Len(t, workflow.Nodes, 1)
	assert.Empty(t, workflow.Edges)
}

func TestAPIHandlers_UpdateWorkflow_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	title := "ghost"
	req := jsonRequest(t, http.MethodPatch, "/workflows/404", web.UpdateWorkflowRequest{Title: &title})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflow())

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/workflows/"+strconv.FormatInt(created.ID, 10), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/workflows/"+strconv.FormatInt(created.ID, 10), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_RunWorkflow(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/workflows/"+strconv.FormatInt(created.ID, 10)+"/run", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run models.WorkflowRun

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Len(t, run.NodeExecutions, 2)
}

func TestAPIHandlers_RunWorkflow_InsufficientCredits(t *testing.T) {
	app, service := setupTestApp(t)

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.Credits = -1
	created := createWorkflow(t, service, workflow)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/workflows/"+strconv.FormatInt(created.ID, 10)+"/run", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_RunNode(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	target := "/workflows/" + strconv.FormatInt(created.ID, 10) + "/nodes/text-1/run"

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run models.WorkflowRun

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	require.Len(t, run.NodeExecutions, 1)
	assert.Equal(t, "text-1", run.NodeExecutions[0].NodeID)
}

func TestAPIHandlers_RunNode_UnknownNode(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	target := "/workflows/" + strconv.FormatInt(created.ID, 10) + "/nodes/ghost/run"

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_RunSelected(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	target := "/workflows/" + strconv.FormatInt(created.ID, 10) + "/run-selected"
	req := jsonRequest(t, http.MethodPost, target, web.RunSelectedRequest{NodeIDs: []string{"text-1"}})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run models.WorkflowRun

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Len(t, run.NodeExecutions, 1)
}

func TestAPIHandlers_RunSelected_EmptySelection(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	target := "/workflows/" + strconv.FormatInt(created.ID, 10) + "/run-selected"
	req := jsonRequest(t, http.MethodPost, target, web.RunSelectedRequest{NodeIDs: []string{}})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetRuns(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	runResp, err := app.Test(httptest.NewRequest(http.MethodPost, "/workflows/"+strconv.FormatInt(created.ID, 10)+"/run", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, runResp.StatusCode)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+strconv.FormatInt(created.ID, 10)+"/runs", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Runs []*models.WorkflowRun `json:"runs"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Runs, 1)
	assert.Equal(t, models.RunStatusSuccess, result.Runs[0].Status)
}

func TestAPIHandlers_ExportImportRoundTrip(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+strconv.FormatInt(created.ID, 10)+"/export", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	document, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(document), "text-1")

	// Import the exported document into a second workflow.
	other := createWorkflow(t, service, testutil.CreateTestWorkflow())

	importReq := httptest.NewRequest(http.MethodPost,
		"/workflows/"+strconv.FormatInt(other.ID, 10)+"/import", bytes.NewReader(document))
	importReq.Header.Set("Content-Type", "application/json")

	importResp, err := app.Test(importReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, importResp.StatusCode)

	var workflow models.Workflow

	require.NoError(t, json.NewDecoder(importResp.Body).Decode(&workflow))
	assert.Len(t, workflow.Nodes, 2)
	assert.Len(t, workflow.Edges, 1)
}

func TestAPIHandlers_ImportWorkflow_RejectsInvalidDocument(t *testing.T) {
	app, service := setupTestApp(t)
	created := createWorkflow(t, service, testutil.CreateTestWorkflowWithNodes())

	importReq := httptest.NewRequest(http.MethodPost,
		"/workflows/"+strconv.FormatInt(created.ID, 10)+"/import",
		bytes.NewBufferString(`{"nodes": []}`))
	importReq.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(importReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The stored graph is untouched.
	stored, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 2)
}

func TestAPIHandlers_Upload_RejectsUnknownKind(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/uploads", bytes.NewBufferString("kind=audio"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
