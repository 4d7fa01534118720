package designer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/testutil"
)

func TestAddActivity_GeneratesIDAndDefaults(t *testing.T) {
	w := testutil.CreateTestWorkflow()

	a := AddActivity(w, &models.Activity{Kind: models.ActivityKindTask, Name: "Review"})

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, w.ID, a.WorkflowID)
	assert.Equal(t, models.DefaultDueHours, a.DueHours)
	assert.Len(t, w.Activities, 1)
}

func TestRemoveActivity_CascadesTransitions(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())
	b := AddActivity(w, testutil.CreateTestActivity())
	c := AddActivity(w, testutil.CreateTestActivity())

	_, err := AddTransition(w, a.ID, b.ID, "", nil)
	require.NoError(t, err)
	_, err = AddTransition(w, b.ID, c.ID, "", nil)
	require.NoError(t, err)
	_, err = AddTransition(w, a.ID, c.ID, "", nil)
	require.NoError(t, err)

	err = RemoveActivity(w, b.ID)
	require.NoError(t, err)

	assert.Len(t, w.Activities, 2)
	require.Len(t, w.Transitions, 1)
	assert.Equal(t, a.ID, w.Transitions[0].SourceID)
	assert.Equal(t, c.ID, w.Transitions[0].TargetID)
}

func TestRemoveActivity_NotFound(t *testing.T) {
	w := testutil.CreateTestWorkflow()

	err := RemoveActivity(w, "missing")

	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestAddTransition_DuplicatePairIsNoop(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())
	b := AddActivity(w, testutil.CreateTestActivity())

	var diags diag.Collector

	first, err := AddTransition(w, a.ID, b.ID, "x > 1", &diags)
	require.NoError(t, err)
	assert.True(t, diags.Empty())

	second, err := AddTransition(w, a.ID, b.ID, "different", &diags)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "x > 1", second.Condition)
	assert.Len(t, w.Transitions, 1)

	// The ignored duplicate is surfaced as a warning, not an error.
	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.CodeDuplicateTransition, diags.Items()[0].Code)
	assert.Equal(t, first.ID, diags.Items()[0].ElementID)
}

func TestAddTransition_ReverseDirectionIsDistinct(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())
	b := AddActivity(w, testutil.CreateTestActivity())

	_, err := AddTransition(w, a.ID, b.ID, "", nil)
	require.NoError(t, err)
	_, err = AddTransition(w, b.ID, a.ID, "", nil)
	require.NoError(t, err)

	assert.Len(t, w.Transitions, 2)
}

func TestAddTransition_UnknownEndpoints(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	_, err := AddTransition(w, a.ID, "missing", "", nil)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = AddTransition(w, "missing", a.ID, "", nil)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestRemoveTransition(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())
	b := AddActivity(w, testutil.CreateTestActivity())

	tr, err := AddTransition(w, a.ID, b.ID, "", nil)
	require.NoError(t, err)

	require.NoError(t, RemoveTransition(w, tr.ID))
	assert.Empty(t, w.Transitions)

	assert.ErrorIs(t, RemoveTransition(w, tr.ID), ErrTransitionNotFound)
}

func TestAddField_AssignsContiguousOrder(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	for i, name := range []string{"amount", "reason", "approved"} {
		f, err := AddField(w, a.ID, &models.FieldDefinition{Name: name, Label: name, Type: models.FieldTypeText})
		require.NoError(t, err)
		assert.Equal(t, i, f.OrderIndex)
	}
}

func TestAddField_RejectsInvalidAndDuplicateNames(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	_, err := AddField(w, a.ID, &models.FieldDefinition{Name: "Amount", Label: "x", Type: models.FieldTypeText})
	assert.ErrorIs(t, err, ErrInvalidFieldName)

	_, err = AddField(w, a.ID, &models.FieldDefinition{Name: "amount", Label: "x", Type: models.FieldTypeText})
	require.NoError(t, err)

	_, err = AddField(w, a.ID, &models.FieldDefinition{Name: "amount", Label: "y", Type: models.FieldTypeNumber})
	assert.ErrorIs(t, err, ErrDuplicateFieldName)
}

func TestAddField_RejectsUnknownType(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	_, err := AddField(w, a.ID, &models.FieldDefinition{Name: "flavor", Label: "Flavor", Type: "banana"})
	assert.ErrorIs(t, err, ErrInvalidFieldType)

	f, err := AddField(w, a.ID, &models.FieldDefinition{Name: "flavor", Label: "Flavor", Type: models.FieldTypeSelect})
	require.NoError(t, err)

	_, err = UpdateField(w, a.ID, f.ID, models.FieldDefinition{Name: "flavor", Label: "Flavor", Type: "banana"})
	assert.ErrorIs(t, err, ErrInvalidFieldType)
}

func TestRemoveField_RenumbersContiguously(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	var ids []string

	for _, name := range []string{"f_a", "f_b", "f_c", "f_d"} {
		f, err := AddField(w, a.ID, &models.FieldDefinition{Name: name, Label: name, Type: models.FieldTypeText})
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	// Delete the middle field; survivors keep their relative order.
	require.NoError(t, RemoveField(w, a.ID, ids[1]))

	require.Len(t, a.Fields, 3)

	for i, f := range a.Fields {
		assert.Equal(t, i, f.OrderIndex)
	}

	assert.Equal(t, "f_a", a.Fields[0].Name)
	assert.Equal(t, "f_c", a.Fields[1].Name)
	assert.Equal(t, "f_d", a.Fields[2].Name)
}

func TestReorderField(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	var ids []string

	for _, name := range []string{"f_a", "f_b", "f_c"} {
		f, err := AddField(w, a.ID, &models.FieldDefinition{Name: name, Label: name, Type: models.FieldTypeText})
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	require.NoError(t, ReorderField(w, a.ID, ids[2], 0))

	assert.Equal(t, "f_c", a.Fields[0].Name)
	assert.Equal(t, "f_a", a.Fields[1].Name)
	assert.Equal(t, "f_b", a.Fields[2].Name)

	for i, f := range a.Fields {
		assert.Equal(t, i, f.OrderIndex)
	}

	// Out-of-range positions clamp instead of failing.
	require.NoError(t, ReorderField(w, a.ID, ids[2], 99))
	assert.Equal(t, "f_c", a.Fields[2].Name)
}

func TestUpdateField(t *testing.T) {
	w := testutil.CreateTestWorkflow()
	a := AddActivity(w, testutil.CreateTestActivity())

	f, err := AddField(w, a.ID, &models.FieldDefinition{Name: "amount", Label: "Amount", Type: models.FieldTypeNumber})
	require.NoError(t, err)

	updated, err := UpdateField(w, a.ID, f.ID, models.FieldDefinition{
		Name:     "total_amount",
		Label:    "Total amount",
		Type:     models.FieldTypeCurrency,
		Required: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "total_amount", updated.Name)
	assert.Equal(t, models.FieldTypeCurrency, updated.Type)
	assert.True(t, updated.Required)
	assert.Equal(t, 0, updated.OrderIndex)
	assert.Equal(t, f.ID, updated.ID)
}
