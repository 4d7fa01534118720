package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procline/procline/pkg/designer"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
	"github.com/procline/procline/pkg/testutil"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func TestWorkflowRepository_SaveAndLoadRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	w := testutil.CreateTestWorkflow()
	start := designer.AddActivity(w, testutil.CreateTestActivity(testutil.WithKind(models.ActivityKindStart)))
	end := designer.AddActivity(w, testutil.CreateTestActivity(testutil.WithKind(models.ActivityKindEnd)))

	_, err := designer.AddTransition(w, start.ID, end.ID, "ok == true", nil)
	require.NoError(t, err)

	_, err = designer.AddField(w, start.ID, &models.FieldDefinition{Name: "amount", Label: "Amount", Type: models.FieldTypeNumber})
	require.NoError(t, err)

	require.NoError(t, p.Workflows().Save(ctx, w))

	loaded, err := p.Workflows().GetByID(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.Name, loaded.Name)
	require.Len(t, loaded.Activities, 2)
	require.Len(t, loaded.Transitions, 1)
	assert.Equal(t, "ok == true", loaded.Transitions[0].Condition)
	require.Len(t, loaded.Activities[0].Fields, 1)
	assert.Equal(t, "amount", loaded.Activities[0].Fields[0].Name)
}

func TestWorkflowRepository_GetMissing(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.Workflows().GetByID(context.Background(), "missing")

	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_Delete(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	w := testutil.CreateTestWorkflow()
	require.NoError(t, p.Workflows().Save(ctx, w))
	require.NoError(t, p.Workflows().Delete(ctx, w.ID))

	_, err := p.Workflows().GetByID(ctx, w.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = p.Workflows().Delete(ctx, w.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_List(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, p.Workflows().Save(ctx, testutil.CreateTestWorkflow()))
	}

	workflows, err := p.Workflows().List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 3)
}

func TestWorkflowRepository_RejectsInvalidActionConfigOnLoad(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	w := testutil.CreateTestWorkflow()
	a := designer.AddActivity(w, testutil.CreateTestActivity())
	a.Actions = []models.AutomatedAction{{
		ID:     "act-1",
		Type:   "http",
		Config: map[string]any{"method": "POST"}, // url missing
	}}

	require.NoError(t, p.Workflows().Save(ctx, w))

	_, err := p.Workflows().GetByID(ctx, w.ID)
	assert.Error(t, err)
}

func TestInstanceRepository_SaveAndHistory(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	instance := &models.ProcessInstance{
		ID:                "inst-1",
		WorkflowID:        "wf-1",
		CurrentActivityID: "a1",
		Status:            models.InstanceStatusActive,
		CreatedBy:         "alice",
		CreatedAt:         now,
		Assignment:        models.AssignmentRef{UserID: "alice"},
	}

	require.NoError(t, p.Instances().Save(ctx, instance))

	entries := []models.HistoryEntry{
		{ID: "h2", ProcessID: "inst-1", ActivityID: "a2", Action: models.HistoryActionStarted, Timestamp: now.Add(time.Hour)},
		{ID: "h1", ProcessID: "inst-1", ActivityID: "a1", Action: models.HistoryActionStarted, Timestamp: now},
	}
	require.NoError(t, p.Instances().AppendHistory(ctx, entries))

	loaded, err := p.Instances().GetByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Assignment.UserID)

	history, err := p.Instances().History(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "h1", history[0].ID, "history is returned in timestamp order")

	// Workflow-scoped history aggregates across instances.
	all, err := p.Instances().HistoryByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInstanceRepository_ListActive(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	active := &models.ProcessInstance{ID: "i1", WorkflowID: "wf", CurrentActivityID: "a", Status: models.InstanceStatusActive}
	done := &models.ProcessInstance{ID: "i2", WorkflowID: "wf", CurrentActivityID: "b", Status: models.InstanceStatusCompleted}

	require.NoError(t, p.Instances().Save(ctx, active))
	require.NoError(t, p.Instances().Save(ctx, done))

	instances, err := p.Instances().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "i1", instances[0].ID)
}

func TestInstanceRepository_GetMissing(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.Instances().GetByID(context.Background(), "nope")

	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := newTestPersistence(t)

	assert.NoError(t, p.HealthCheck(context.Background()))
	assert.NoError(t, p.Close(context.Background()))
}
