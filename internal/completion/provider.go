package completion

import (
	"context"

	"github.com/goldtouch/messenger-relay/internal/types"
)

// Provider produces an AI-generated reply for a conversation. Implemented by
// the OpenAI client; replaced with a double in handler tests.
type Provider interface {
	Complete(ctx context.Context, messages []types.Message) (string, error)
}
