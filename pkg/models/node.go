// Package models defines the core domain models for node-based content workflows
package models

// NodeKind identifies the variant of a node. The set is closed: every kind
// carries its own field group in NodeData and its own execution behavior.
type NodeKind string

const (
	NodeKindText         NodeKind = "text"
	NodeKindUploadImage  NodeKind = "uploadImage"
	NodeKindUploadVideo  NodeKind = "uploadVideo"
	NodeKindLLM          NodeKind = "llm"
	NodeKindCropImage    NodeKind = "cropImage"
	NodeKindExtractFrame NodeKind = "extractFrame"
)

// Kinds returns every known node kind in palette order.
func Kinds() []NodeKind {
	return []NodeKind{
		NodeKindText,
		NodeKindUploadImage,
		NodeKindUploadVideo,
		NodeKindLLM,
		NodeKindCropImage,
		NodeKindExtractFrame,
	}
}

// IsValid reports whether k is one of the known node kinds.
func (k NodeKind) IsValid() bool {
	switch k {
	case NodeKindText, NodeKindUploadImage, NodeKindUploadVideo,
		NodeKindLLM, NodeKindCropImage, NodeKindExtractFrame:
		return true
	}

	return false
}

// RequiresRemoteExecution reports whether the kind delegates to an external
// execution capability. Text and upload nodes are pure local state.
func (k NodeKind) RequiresRemoteExecution() bool {
	switch k {
	case NodeKindLLM, NodeKindCropImage, NodeKindExtractFrame:
		return true
	}

	return false
}

// NodeStatus defines the possible execution states of a node.
type NodeStatus string

const (
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// Position is the node's 2D canvas coordinate. Presentation-only, no invariant.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the per-variant field set of a node. Each kind reads only
// the fields relevant to it; the shared fields (Label, Status, Output, Error,
// Cost) are common to all kinds.
type NodeData struct {
	Label  string     `json:"label"`
	Status NodeStatus `json:"status,omitempty"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
	Cost   int        `json:"cost,omitempty"`

	// text
	Text string `json:"text,omitempty"`

	// uploadImage / uploadVideo
	ImageURL string `json:"imageUrl,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`

	// llm
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	UserMessage  string   `json:"userMessage,omitempty"`
	Images       []string `json:"images,omitempty"`

	// cropImage, as percentages of the source dimensions
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// extractFrame
	Timestamp    float64 `json:"timestamp,omitempty"`
	IsPercentage bool    `json:"isPercentage,omitempty"`

	// generic passthrough value, lowest resolution precedence
	Value string `json:"value,omitempty"`
}

// Clone returns a deep copy of the data.
func (d *NodeData) Clone() *NodeData {
	if d == nil {
		return nil
	}

	clone := *d
	if d.Images != nil {
		clone.Images = make([]string, len(d.Images))
		copy(clone.Images, d.Images)
	}

	return &clone
}

// DefaultModel is the language model preselected on new LLM nodes.
const DefaultModel = "gemini-2.5-flash"

// DefaultData returns the variant defaults a freshly created node starts with.
func DefaultData(kind NodeKind) *NodeData {
	switch kind {
	case NodeKindText:
		return &NodeData{Label: "Text", Status: NodeStatusIdle}
	case NodeKindUploadImage:
		return &NodeData{Label: "Upload Image", Status: NodeStatusIdle}
	case NodeKindUploadVideo:
		return &NodeData{Label: "Upload Video", Status: NodeStatusIdle}
	case NodeKindLLM:
		return &NodeData{
			Label:  "Run Any LLM",
			Status: NodeStatusIdle,
			Model:  DefaultModel,
		}
	case NodeKindCropImage:
		return &NodeData{
			Label:  "Crop Image",
			Status: NodeStatusIdle,
			Width:  100,
			Height: 100,
		}
	case NodeKindExtractFrame:
		return &NodeData{Label: "Extract Frame", Status: NodeStatusIdle}
	default:
		return &NodeData{Label: string(kind), Status: NodeStatusIdle}
	}
}

// NodeDataPatch carries a shallow partial update of NodeData. Only non-nil
// fields are applied, so callers can distinguish "unset" from zero values.
type NodeDataPatch struct {
	Label        *string     `json:"label,omitempty"`
	Status       *NodeStatus `json:"status,omitempty"`
	Output       *string     `json:"output,omitempty"`
	Error        *string     `json:"error,omitempty"`
	Cost         *int        `json:"cost,omitempty"`
	Text         *string     `json:"text,omitempty"`
	ImageURL     *string     `json:"imageUrl,omitempty"`
	VideoURL     *string     `json:"videoUrl,omitempty"`
	FileName     *string     `json:"fileName,omitempty"`
	Model        *string     `json:"model,omitempty"`
	SystemPrompt *string     `json:"systemPrompt,omitempty"`
	UserMessage  *string     `json:"userMessage,omitempty"`
	Images       []string    `json:"images,omitempty"`
	X            *float64    `json:"x,omitempty"`
	Y            *float64    `json:"y,omitempty"`
	Width        *float64    `json:"width,omitempty"`
	Height       *float64    `json:"height,omitempty"`
	Timestamp    *float64    `json:"timestamp,omitempty"`
	IsPercentage *bool       `json:"isPercentage,omitempty"`
	Value        *string     `json:"value,omitempty"`
}

// Apply merges the set fields of the patch into d.
func (p *NodeDataPatch) Apply(d *NodeData) {
	if p == nil || d == nil {
		return
	}

	if p.Label != nil {
		d.Label = *p.Label
	}

	if p.Status != nil {
		d.Status = *p.Status
	}

	if p.Output != nil {
		d.Output = *p.Output
	}

	if p.Error != nil {
		d.Error = *p.Error
	}

	if p.Cost != nil {
		d.Cost = *p.Cost
	}

	if p.Text != nil {
		d.Text = *p.Text
	}

	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}

	if p.VideoURL != nil {
		d.VideoURL = *p.VideoURL
	}

	if p.FileName != nil {
		d.FileName = *p.FileName
	}

	if p.Model != nil {
		d.Model = *p.Model
	}

	if p.SystemPrompt != nil {
		d.SystemPrompt = *p.SystemPrompt
	}

	if p.UserMessage != nil {
		d.UserMessage = *p.UserMessage
	}

	if p.Images != nil {
		d.Images = make([]string, len(p.Images))
		copy(d.Images, p.Images)
	}

	if p.X != nil {
		d.X = *p.X
	}

	if p.Y != nil {
		d.Y = *p.Y
	}

	if p.Width != nil {
		d.Width = *p.Width
	}

	if p.Height != nil {
		d.Height = *p.Height
	}

	if p.Timestamp != nil {
		d.Timestamp = *p.Timestamp
	}

	if p.IsPercentage != nil {
		d.IsPercentage = *p.IsPercentage
	}

	if p.Value != nil {
		d.Value = *p.Value
	}
}

// Node represents a vertex in the workflow graph.
type Node struct {
	ID       string    `json:"id"       validate:"required"`
	Kind     NodeKind  `json:"kind"     validate:"required"`
	Position Position  `json:"position"`
	Data     *NodeData `json:"data"     validate:"required"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	return &Node{
		ID:       n.ID,
		Kind:     n.Kind,
		Position: n.Position,
		Data:     n.Data.Clone(),
	}
}

// OutputValue resolves the value the node currently feeds downstream. The
// precedence is fixed across kinds: an explicit execution output wins, then
// the text field, the uploaded image, the uploaded video, and finally the
// generic value field. Empty string means the node has produced nothing yet.
func (n *Node) OutputValue() string {
	if n == nil || n.Data == nil {
		return ""
	}

	switch {
	case n.Data.Output != "":
		return n.Data.Output
	case n.Data.Text != "":
		return n.Data.Text
	case n.Data.ImageURL != "":
		return n.Data.ImageURL
	case n.Data.VideoURL != "":
		return n.Data.VideoURL
	case n.Data.Value != "":
		return n.Data.Value
	}

	return ""
}

// Edge represents a directed connection carrying the source node's output
// into the target node. SourceHandle disambiguates which logical input slot
// of the target the value lands on.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}

	clone := *e

	return &clone
}
