package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procline/procline/pkg/assignment"
	"github.com/procline/procline/pkg/conditions"
	"github.com/procline/procline/pkg/engine"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence/file"
	"github.com/procline/procline/pkg/services"
	"github.com/procline/procline/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	persistence, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	workflowService := services.NewWorkflowService(persistence)
	processEngine := engine.New(conditions.NewEvaluator(), assignment.NewResolver(nil), nil)
	processService := services.NewProcessService(persistence, processEngine, nil)

	handlers := web.NewAPIHandlers(workflowService, processService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/import", handlers.ImportWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/layout", handlers.AutoLayout)
	w.Get("/:id/export", handlers.ExportWorkflow)
	w.Get("/:id/durations", handlers.GetWorkflowDurations)
	w.Post("/:id/activities", handlers.CreateActivity)
	w.Patch("/:id/activities/:activityId", handlers.UpdateActivity)
	w.Delete("/:id/activities/:activityId", handlers.DeleteActivity)
	w.Post("/:id/transitions", handlers.CreateTransition)
	w.Delete("/:id/transitions/:transitionId", handlers.DeleteTransition)
	w.Post("/:id/activities/:activityId/fields", handlers.CreateField)

	i := app.Group("/instances")
	i.Post("/", handlers.StartInstance)
	i.Get("/:id", handlers.GetInstance)
	i.Post("/:id/advance", handlers.AdvanceInstance)
	i.Get("/:id/history", handlers.GetInstanceHistory)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

type transitionResponse struct {
	Transition  models.Transition `json:"transition"`
	Diagnostics []map[string]any  `json:"diagnostics"`
}

func createWorkflowViaAPI(t *testing.T, app *fiber.App) models.Workflow {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
		Name:  "Expense Approval",
		Owner: "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))

	return workflow
}

func addActivityViaAPI(t *testing.T, app *fiber.App, workflowID, kind string) models.Activity {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflowID+"/activities", web.CreateActivityRequest{
		Kind: kind,
		Name: "Step " + kind,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var activity models.Activity
	require.NoError(t, json.Unmarshal(body, &activity))

	return activity
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Test Workflow",
				Description: "Test Description",
				Owner:       "test-user",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "validation error - missing name",
			requestBody: web.CreateWorkflowRequest{
				Owner: "test-user",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - name too short",
			requestBody: web.CreateWorkflowRequest{
				Name:  "Te",
				Owner: "test-user",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - missing owner",
			requestBody: web.CreateWorkflowRequest{
				Name: "Test Workflow",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/workflows/", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflowIncludesDiagnostics(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflowViaAPI(t, app)

	// No start activity yet, so the designer flags the workflow.
	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Workflow    models.Workflow  `json:"workflow"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, workflow.ID, payload.Workflow.ID)
	assert.NotEmpty(t, payload.Diagnostics)
}

func TestAPIHandlers_GetWorkflowNotFound(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GraphEditing(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflowViaAPI(t, app)

	start := addActivityViaAPI(t, app, workflow.ID, "start")
	end := addActivityViaAPI(t, app, workflow.ID, "end")

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID:  start.ID,
		TargetID:  end.ID,
		Condition: "approved == true",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created transitionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "approved == true", created.Transition.Condition)
	assert.Empty(t, created.Diagnostics)

	// A repeated (source, target) pair is ignored: the existing transition
	// comes back with a duplicate warning instead of a second edge.
	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID:  start.ID,
		TargetID:  end.ID,
		Condition: "something else",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var duplicate transitionResponse
	require.NoError(t, json.Unmarshal(body, &duplicate))
	assert.Equal(t, created.Transition.ID, duplicate.Transition.ID)
	require.Len(t, duplicate.Diagnostics, 1)
	assert.Equal(t, "duplicate_transition", duplicate.Diagnostics[0]["code"])

	// Unknown endpoints map to 404, not 500.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID: start.ID,
		TargetID: "missing",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activities/"+start.ID+"/fields", web.FieldRequest{
		Name:  "amount",
		Label: "Amount",
		Type:  models.FieldTypeNumber,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var field models.FieldDefinition
	require.NoError(t, json.Unmarshal(body, &field))
	assert.Equal(t, 0, field.OrderIndex)

	// Duplicate technical name is rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activities/"+start.ID+"/fields", web.FieldRequest{
		Name:  "amount",
		Label: "Amount Again",
		Type:  models.FieldTypeNumber,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A type outside the supported set is rejected at the boundary.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activities/"+start.ID+"/fields", web.FieldRequest{
		Name:  "flavor",
		Label: "Flavor",
		Type:  "banana",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+workflow.ID+"/activities/"+end.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIHandlers_InstanceLifecycle(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflowViaAPI(t, app)
	start := addActivityViaAPI(t, app, workflow.ID, "start")
	end := addActivityViaAPI(t, app, workflow.ID, "end")

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID: start.ID,
		TargetID: end.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/instances/", web.StartInstanceRequest{
		WorkflowID: workflow.ID,
		Initiator:  "alice",
		Variables:  map[string]any{"amount": 120},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var started services.StartResult
	require.NoError(t, json.Unmarshal(body, &started))
	require.NotNil(t, started.Instance)
	assert.Equal(t, models.InstanceStatusActive, started.Instance.Status)

	resp, body = doJSON(t, app, http.MethodPost, "/instances/"+started.Instance.ID+"/advance", web.AdvanceInstanceRequest{
		Actor: "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var advanced services.StartResult
	require.NoError(t, json.Unmarshal(body, &advanced))
	assert.True(t, advanced.Completed)

	// A completed instance cannot advance again.
	resp, _ = doJSON(t, app, http.MethodPost, "/instances/"+started.Instance.ID+"/advance", web.AdvanceInstanceRequest{
		Actor: "alice",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/instances/"+started.Instance.ID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		History []models.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history.History, 3)
}

func TestAPIHandlers_ExportImport(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflowViaAPI(t, app)
	start := addActivityViaAPI(t, app, workflow.ID, "start")
	end := addActivityViaAPI(t, app, workflow.ID, "end")

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID: start.ID,
		TargetID: end.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, document := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "xml")

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/import", web.ImportWorkflowRequest{
		Name:     "Imported Workflow",
		Owner:    "bob",
		Document: string(document),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var imported models.Workflow
	require.NoError(t, json.Unmarshal(body, &imported))
	assert.NotEqual(t, workflow.ID, imported.ID)
	assert.Len(t, imported.Activities, 2)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/import", web.ImportWorkflowRequest{
		Name:     "Broken Import",
		Owner:    "bob",
		Document: "<definitions",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_AutoLayout(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	workflow := createWorkflowViaAPI(t, app)
	start := addActivityViaAPI(t, app, workflow.ID, "start")
	end := addActivityViaAPI(t, app, workflow.ID, "end")

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/transitions", web.CreateTransitionRequest{
		SourceID: start.ID,
		TargetID: end.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/layout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var laidOut models.Workflow
	require.NoError(t, json.Unmarshal(body, &laidOut))
	assert.NotEqual(t,
		laidOut.ActivityByID(start.ID).PositionX,
		laidOut.ActivityByID(end.ID).PositionX,
	)
}
