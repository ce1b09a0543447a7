package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/capability/local"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/persistence/file"
	"github.com/weftlabs/weft/pkg/runner"
	"github.com/weftlabs/weft/pkg/services"
	"github.com/weftlabs/weft/pkg/testutil"
)

func newExecutionService(t *testing.T) (*services.Execution, persistence.Persistence) {
	t.Helper()

	fp := file.NewPersistence(t.TempDir())

	registry := capability.NewRegistry(testLogger())
	registry.Register(local.New(models.NodeKindText))
	registry.Register(local.New(models.NodeKindUploadImage))
	registry.Register(local.New(models.NodeKindUploadVideo))

	r := runner.New(registry, nil, testLogger())

	return services.NewExecution(fp, r, testLogger()), fp
}

func storeWorkflow(t *testing.T, fp persistence.Persistence, workflow *models.Workflow) *models.Workflow {
	t.Helper()

	require.NoError(t, fp.CreateWorkflow(context.Background(), workflow))

	return workflow
}

func TestExecution_Run(t *testing.T) {
	service, fp := newExecutionService(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.Nodes[0].Data.Cost = 3
	workflow.Nodes[1].Data.Cost = 2
	storeWorkflow(t, fp, workflow)

	run, err := service.Run(ctx, workflow.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	require.Len(t, run.NodeExecutions, 2)

	// The post-run state is written back: statuses, the run counter, and
	// the credit balance reduced by the executed nodes' cost.
	stored, err := fp.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, stored.Runs)
	assert.Equal(t, models.DefaultCredits-5, stored.Credits)
	assert.Equal(t, models.NodeStatusSuccess, stored.Nodes[0].Data.Status)
	assert.Equal(t, "hello", stored.Nodes[0].Data.Output)

	runs, err := fp.RunsByWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestExecution_Run_CreditsNeverGoNegative(t *testing.T) {
	service, fp := newExecutionService(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.Credits = 1
	workflow.Nodes[0].Data.Cost = 10
	storeWorkflow(t, fp, workflow)

	_, err := service.Run(ctx, workflow.ID)
	require.NoError(t, err)

	stored, err := fp.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Credits)
}

func TestExecution_Run_InsufficientCredits(t *testing.T) {
	service, fp := newExecutionService(t)

	workflow := testutil.CreateTestWorkflow()
	workflow.Credits = 0
	storeWorkflow(t, fp, workflow)

	_, err := service.Run(context.Background(), workflow.ID)
	require.ErrorIs(t, err, services.ErrInsufficientCredits)
	assert.True(t, services.IsConflictError(err))
}

func TestExecution_Run_WorkflowNotFound(t *testing.T) {
	service, _ := newExecutionService(t)

	_, err := service.Run(context.Background(), 404)
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestExecution_Run_CorruptStoredGraph(t *testing.T) {
	service, fp := newExecutionService(t)

	workflow := testutil.CreateTestWorkflow()
	workflow.Nodes = []*models.Node{testutil.CreateTestNode(testutil.WithID("a"))}
	workflow.Edges = []*models.Edge{testutil.CreateTestEdge("a", "ghost")}

	// Written directly to the store, bypassing service-level validation.
	storeWorkflow(t, fp, workflow)

	_, err := service.Run(context.Background(), workflow.ID)
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.ErrorIs(t, err, services.ErrInvalidGraph)
}

func TestExecution_RunNode(t *testing.T) {
	service, fp := newExecutionService(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.Nodes[0].Data.Cost = 4
	workflow.Nodes[1].Data.Cost = 7
	storeWorkflow(t, fp, workflow)

	run, err := service.RunNode(ctx, workflow.ID, "text-1")
	require.NoError(t, err)

	require.Len(t, run.NodeExecutions, 1)
	assert.Equal(t, "text-1", run.NodeExecutions[0].NodeID)

	// Only the executed node's cost is charged.
	stored, err := fp.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCredits-4, stored.Credits)
	assert.Equal(t, 1, stored.Runs)
}

func TestExecution_RunNode_UnknownNode(t *testing.T) {
	service, fp := newExecutionService(t)

	workflow := storeWorkflow(t, fp, testutil.CreateTestWorkflowWithNodes())

	_, err := service.RunNode(context.Background(), workflow.ID, "ghost")
	require.Error(t, err)

	// A rejected run is not recorded and charges nothing.
	stored, loadErr := fp.WorkflowByID(context.Background(), workflow.ID)
	require.NoError(t, loadErr)
	assert.Equal(t, 0, stored.Runs)
	assert.Equal(t, models.DefaultCredits, stored.Credits)
}

func TestExecution_RunSelected(t *testing.T) {
	service, fp := newExecutionService(t)
	ctx := context.Background()

	workflow := storeWorkflow(t, fp, testutil.CreateTestWorkflowWithNodes())

	run, err := service.RunSelected(ctx, workflow.ID, []string{"text-1", "text-2"})
	require.NoError(t, err)

	assert.Len(t, run.NodeExecutions, 2)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
}

func TestExecution_RunSelected_EmptySelection(t *testing.T) {
	service, fp := newExecutionService(t)

	workflow := storeWorkflow(t, fp, testutil.CreateTestWorkflowWithNodes())

	_, err := service.RunSelected(context.Background(), workflow.ID, nil)
	assert.ErrorIs(t, err, runner.ErrNothingSelected)
}

func TestExecution_RunsInProgress(t *testing.T) {
	service, _ := newExecutionService(t)

	assert.False(t, service.RunsInProgress())
}
