package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return parsed
}

func TestNodeKind_IsValid(t *testing.T) {
	for _, kind := range Kinds() {
		assert.True(t, kind.IsValid(), "kind %q should be valid", kind)
	}

	assert.False(t, NodeKind("").IsValid())
	assert.False(t, NodeKind("teleport").IsValid())
}

func TestNodeKind_RequiresRemoteExecution(t *testing.T) {
	remote := map[NodeKind]bool{
		NodeKindText:         false,
		NodeKindUploadImage:  false,
		NodeKindUploadVideo:  false,
		NodeKindLLM:          true,
		NodeKindCropImage:    true,
		NodeKindExtractFrame: true,
	}

	for kind, want := range remote {
		assert.Equal(t, want, kind.RequiresRemoteExecution(), "kind %q", kind)
	}
}

func TestDefaultData(t *testing.T) {
	text := DefaultData(NodeKindText)
	assert.Equal(t, "Text", text.Label)
	assert.Equal(t, NodeStatusIdle, text.Status)

	llm := DefaultData(NodeKindLLM)
	assert.Equal(t, "Run Any LLM", llm.Label)
	assert.Equal(t, DefaultModel, llm.Model)

	crop := DefaultData(NodeKindCropImage)
	assert.Equal(t, "Crop Image", crop.Label)
	assert.Equal(t, float64(100), crop.Width)
	assert.Equal(t, float64(100), crop.Height)

	frame := DefaultData(NodeKindExtractFrame)
	assert.Equal(t, "Extract Frame", frame.Label)
}

func TestNode_OutputValue_Precedence(t *testing.T) {
	node := &Node{
		ID:   "n1",
		Kind: NodeKindText,
		Data: &NodeData{
			Output:   "from-output",
			Text:     "from-text",
			ImageURL: "https://example.com/a.png",
			VideoURL: "https://example.com/a.mp4",
			Value:    "from-value",
		},
	}

	assert.Equal(t, "from-output", node.OutputValue())

	node.Data.Output = ""
	assert.Equal(t, "from-text", node.OutputValue())

	node.Data.Text = ""
	assert.Equal(t, "https://example.com/a.png", node.OutputValue())

	node.Data.ImageURL = ""
	assert.Equal(t, "https://example.com/a.mp4", node.OutputValue())

	node.Data.VideoURL = ""
	assert.Equal(t, "from-value", node.OutputValue())

	node.Data.Value = ""
	assert.Empty(t, node.OutputValue())
}

func TestNode_OutputValue_NilSafe(t *testing.T) {
	var node *Node

	assert.Empty(t, node.OutputValue())
	assert.Empty(t, (&Node{ID: "n1"}).OutputValue())
}

func TestNodeDataPatch_Apply(t *testing.T) {
	data := DefaultData(NodeKindLLM)

	message := "summarize {input}"
	cost := 5
	status := NodeStatusRunning

	patch := &NodeDataPatch{
		UserMessage: &message,
		Cost:        &cost,
		Status:      &status,
		Images:      []string{"https://example.com/a.png"},
	}
	patch.Apply(data)

	assert.Equal(t, message, data.UserMessage)
	assert.Equal(t, cost, data.Cost)
	assert.Equal(t, status, data.Status)
	assert.Equal(t, []string{"https://example.com/a.png"}, data.Images)

	// Untouched fields keep their defaults.
	assert.Equal(t, "Run Any LLM", data.Label)
	assert.Equal(t, DefaultModel, data.Model)
}

func TestNodeDataPatch_Apply_NilSafe(t *testing.T) {
	var patch *NodeDataPatch

	data := DefaultData(NodeKindText)
	patch.Apply(data)

	assert.Equal(t, "Text", data.Label)

	label := "renamed"
	(&NodeDataPatch{Label: &label}).Apply(nil)
}

func TestNode_Clone_Independence(t *testing.T) {
	node := &Node{
		ID:       "n1",
		Kind:     NodeKindLLM,
		Position: Position{X: 10, Y: 20},
		Data: &NodeData{
			Label:  "Run Any LLM",
			Model:  DefaultModel,
			Images: []string{"https://example.com/a.png"},
		},
	}

	clone := node.Clone()
	require.NotSame(t, node, clone)
	require.NotSame(t, node.Data, clone.Data)
	assert.Equal(t, node, clone)

	clone.Data.Label = "changed"
	clone.Data.Images[0] = "https://example.com/b.png"

	assert.Equal(t, "Run Any LLM", node.Data.Label)
	assert.Equal(t, "https://example.com/a.png", node.Data.Images[0])
}

func TestWorkflowRun_Finalize(t *testing.T) {
	run := &WorkflowRun{
		ID:        "run-1",
		Status:    RunStatusRunning,
		StartedAt: mustTime(t, "2026-03-01T10:00:00Z"),
		NodeExecutions: []NodeExecution{
			{NodeID: "a", Status: ExecutionStatusSuccess},
			{NodeID: "b", Status: ExecutionStatusSuccess},
		},
	}

	run.Finalize(mustTime(t, "2026-03-01T10:00:02Z"))

	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, RunStatusSuccess, run.Status)
	assert.Equal(t, int64(2000), run.DurationMS)

	run.NodeExecutions = append(run.NodeExecutions, NodeExecution{NodeID: "c", Status: ExecutionStatusFailed})
	run.Finalize(mustTime(t, "2026-03-01T10:00:03Z"))

	assert.Equal(t, RunStatusFailed, run.Status)
}
