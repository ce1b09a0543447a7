package runner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weftlabs/weft/pkg/models"
)

// InputPlaceholder is the token in an LLM user message replaced with the
// first upstream text input.
const InputPlaceholder = "{input}"

// Payload validation failures. Expected user-facing conditions, reported on
// the node rather than crashing the run.
var (
	ErrMissingUserMessage = errors.New("user message is required")

	ErrVideoInputNotSupported = errors.New(
		"video analysis not supported: use an Extract Frame node to convert the video to an image first, then connect it",
	)

	ErrMissingImageInput = errors.New(
		"no image connected: connect an image node or upload an image first",
	)

	ErrMissingVideoInput = errors.New(
		"no video connected: connect a video node or upload a video first",
	)
)

// BuildPayload assembles the JSON-serializable payload the node's execution
// capability is invoked with, from the node's own data and its resolved
// upstream inputs.
func BuildPayload(node *models.Node, inputs map[string]string) (map[string]any, error) {
	switch node.Kind {
	case models.NodeKindLLM:
		return buildLLMPayload(node, inputs)
	case models.NodeKindCropImage:
		return buildCropPayload(node, inputs)
	case models.NodeKindExtractFrame:
		return buildExtractPayload(node, inputs)
	default:
		// Local kinds carry their produced value through.
		return map[string]any{"value": node.OutputValue()}, nil
	}
}

func buildLLMPayload(node *models.Node, inputs map[string]string) (map[string]any, error) {
	texts, images, videos := classifyInputs(inputs)

	// The language model capability cannot consume raw video.
	if len(videos) > 0 {
		return nil, ErrVideoInputNotSupported
	}

	if node.Data.UserMessage == "" {
		return nil, ErrMissingUserMessage
	}

	message := node.Data.UserMessage
	if strings.Contains(message, InputPlaceholder) && len(texts) > 0 {
		message = strings.ReplaceAll(message, InputPlaceholder, texts[0])
	}

	model := node.Data.Model
	if model == "" {
		model = models.DefaultModel
	}

	allImages := make([]string, 0, len(images)+len(node.Data.Images))
	allImages = append(allImages, images...)
	allImages = append(allImages, node.Data.Images...)

	return map[string]any{
		"model":        model,
		"systemPrompt": node.Data.SystemPrompt,
		"userMessage":  message,
		"images":       allImages,
	}, nil
}

func buildCropPayload(node *models.Node, inputs map[string]string) (map[string]any, error) {
	imageURL := firstInput(inputs)
	if imageURL == "" {
		imageURL = node.Data.ImageURL
	}

	if imageURL == "" {
		return nil, ErrMissingImageInput
	}

	return map[string]any{
		"imageUrl": imageURL,
		"x":        node.Data.X,
		"y":        node.Data.Y,
		"width":    node.Data.Width,
		"height":   node.Data.Height,
	}, nil
}

func buildExtractPayload(node *models.Node, inputs map[string]string) (map[string]any, error) {
	videoURL := firstInput(inputs)
	if videoURL == "" {
		videoURL = node.Data.VideoURL
	}

	if videoURL == "" {
		return nil, ErrMissingVideoInput
	}

	return map[string]any{
		"videoUrl":     videoURL,
		"timestamp":    node.Data.Timestamp,
		"isPercentage": node.Data.IsPercentage,
	}, nil
}

// classifyInputs splits resolved input values into texts, images, and videos
// by their reference shape: data URLs declare their media type, http(s)
// references are treated as images, everything else is text. Keys are walked
// in sorted order so the split is deterministic.
func classifyInputs(inputs map[string]string) (texts, images, videos []string) {
	keys := make([]string, 0, len(inputs))
	for key := range inputs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := inputs[key]

		switch {
		case strings.HasPrefix(value, "data:video/"):
			videos = append(videos, value)
		case strings.HasPrefix(value, "data:image/"), strings.HasPrefix(value, "http"):
			images = append(images, value)
		default:
			texts = append(texts, value)
		}
	}

	return texts, images, videos
}

// firstInput returns the value of the lowest-sorted input key, or "".
func firstInput(inputs map[string]string) string {
	if len(inputs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(inputs))
	for key := range inputs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return inputs[keys[0]]
}

// describeInputs renders the input map for logs.
func describeInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return "(none)"
	}

	keys := make([]string, 0, len(inputs))
	for key := range inputs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return fmt.Sprintf("%d inputs (%s)", len(inputs), strings.Join(keys, ", "))
}
