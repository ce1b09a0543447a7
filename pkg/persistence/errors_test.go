package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowError(t *testing.T) {
	err := NewWorkflowError("GetByID", 42, ErrWorkflowNotFound)

	assert.Contains(t, err.Error(), "GetByID")
	assert.Contains(t, err.Error(), "42")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.True(t, IsWorkflowNotFound(err))
	assert.False(t, IsRunNotFound(err))

	require.Equal(t, ErrWorkflowNotFound, err.Unwrap())
}

func TestWorkflowError_Message(t *testing.T) {
	err := &WorkflowError{
		Op:         "Save",
		WorkflowID: 7,
		Err:        errors.New("disk full"),
		Message:    "write failed",
	}

	assert.Contains(t, err.Error(), "write failed")
	assert.Contains(t, err.Error(), "disk full")
}

func TestWorkflowError_WrappedFurther(t *testing.T) {
	inner := NewWorkflowError("Delete", 3, ErrWorkflowNotFound)
	outer := fmt.Errorf("handling request: %w", inner)

	assert.True(t, IsWorkflowNotFound(outer))

	var workflowErr *WorkflowError

	require.ErrorAs(t, outer, &workflowErr)
	assert.Equal(t, int64(3), workflowErr.WorkflowID)
}

func TestRunError(t *testing.T) {
	err := NewRunError("List", 5, "run-abc", ErrRunNotFound)

	assert.Contains(t, err.Error(), "run-abc")
	assert.Contains(t, err.Error(), "5")
	assert.True(t, IsRunNotFound(err))
	assert.False(t, IsWorkflowNotFound(err))
}

func TestIsWorkflowAlreadyExists(t *testing.T) {
	err := NewWorkflowError("Create", 1, ErrWorkflowAlreadyExists)

	assert.True(t, IsWorkflowAlreadyExists(err))
	assert.False(t, IsWorkflowAlreadyExists(errors.New("other")))
	assert.False(t, IsWorkflowAlreadyExists(nil))
}
