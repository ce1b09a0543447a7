// Package capability defines the execution capability contract: the opaque
// external operations (language model call, image crop, frame extraction)
// that nodes delegate to, and the registry that maps node kinds to them.
package capability

import (
	"context"

	"github.com/weftlabs/weft/pkg/models"
)

// Result is the wire contract every capability resolves to:
// {success: true, result} or {success: false, error}.
type Result struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Capability executes one kind of node against an external collaborator.
// Execute returns a non-nil error only for transport-level failures; a
// reported failure from the collaborator comes back as Result.Success=false.
type Capability interface {
	Kind() models.NodeKind
	Execute(ctx context.Context, payload map[string]any) (*Result, error)
}

type tokenKeyType struct{}

var tokenKey tokenKeyType

// ContextWithToken attaches the caller's opaque bearer credential so remote
// capabilities can forward it. The core never inspects the token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts the bearer credential, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)

	return token
}
