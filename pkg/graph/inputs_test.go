package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/models"
)

func TestNodeInputs_TextPropagates(t *testing.T) {
	g := newTestGraph(t)

	text := "hello"
	source := g.AddNode(models.NodeKindText, models.Position{}, &models.NodeDataPatch{Text: &text})
	target := g.AddNode(models.NodeKindLLM, models.Position{}, nil)

	_, err := g.Connect(source.ID, target.ID, "")
	require.NoError(t, err)

	inputs := g.NodeInputs(target.ID)

	assert.Equal(t, map[string]string{DefaultInputKey: "hello"}, inputs)
}

func TestNodeInputs_OutputTakesPrecedenceOverText(t *testing.T) {
	g := newTestGraph(t)

	text := "raw text"
	output := "produced output"
	source := g.AddNode(models.NodeKindText, models.Position{}, &models.NodeDataPatch{
		Text:   &text,
		Output: &output,
	})
	target := g.AddNode(models.NodeKindText, models.Position{}, nil)

	_, err := g.Connect(source.ID, target.ID, "")
	require.NoError(t, err)

	inputs := g.NodeInputs(target.ID)

	assert.Equal(t, "produced output", inputs[DefaultInputKey])
}

func TestNodeInputs_SourceHandleKeysTheValue(t *testing.T) {
	g := newTestGraph(t)

	url := "https://example.com/frame.png"
	source := g.AddNode(models.NodeKindExtractFrame, models.Position{}, &models.NodeDataPatch{
		Output: &url,
	})
	target := g.AddNode(models.NodeKindLLM, models.Position{}, nil)

	_, err := g.Connect(source.ID, target.ID, "image")
	require.NoError(t, err)

	inputs := g.NodeInputs(target.ID)

	assert.Equal(t, map[string]string{"image": url}, inputs)
}

func TestNodeInputs_EmptyProducersContributeNothing(t *testing.T) {
	g := newTestGraph(t)

	source := g.AddNode(models.NodeKindText, models.Position{}, nil)
	target := g.AddNode(models.NodeKindText, models.Position{}, nil)

	_, err := g.Connect(source.ID, target.ID, "")
	require.NoError(t, err)

	assert.Empty(t, g.NodeInputs(target.ID))
}

func TestNodeInputs_NoInboundEdges(t *testing.T) {
	g := newTestGraph(t)

	node := g.AddNode(models.NodeKindText, models.Position{}, nil)

	assert.Empty(t, g.NodeInputs(node.ID))
}

func TestNodeInputs_LaterEdgeWinsOnSharedKey(t *testing.T) {
	g := newTestGraph(t)

	first := "first"
	second := "second"
	a := g.AddNode(models.NodeKindText, models.Position{}, &models.NodeDataPatch{Text: &first})
	b := g.AddNode(models.NodeKindText, models.Position{}, &models.NodeDataPatch{Text: &second})
	target := g.AddNode(models.NodeKindLLM, models.Position{}, nil)

	_, err := g.Connect(a.ID, target.ID, "")
	require.NoError(t, err)
	_, err = g.Connect(b.ID, target.ID, "")
	require.NoError(t, err)

	inputs := g.NodeInputs(target.ID)

	assert.Equal(t, "second", inputs[DefaultInputKey])
}

func TestNodeInputs_MultipleHandles(t *testing.T) {
	g := newTestGraph(t)

	textValue := "describe this"
	imageValue := "data:image/png;base64,AAAA"
	textSource := g.AddNode(models.NodeKindText, models.Position{}, &models.NodeDataPatch{Text: &textValue})
	imageSource := g.AddNode(models.NodeKindUploadImage, models.Position{}, &models.NodeDataPatch{ImageURL: &imageValue})
	target := g.AddNode(models.NodeKindLLM, models.Position{}, nil)

	_, err := g.Connect(textSource.ID, target.ID, "prompt")
	require.NoError(t, err)
	_, err = g.Connect(imageSource.ID, target.ID, "image")
	require.NoError(t, err)

	inputs := g.NodeInputs(target.ID)

	assert.Equal(t, map[string]string{
		"prompt": "describe this",
		"image":  "data:image/png;base64,AAAA",
	}, inputs)
}
