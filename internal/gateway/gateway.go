package gateway

import "context"

// Converser is the agent surface a gateway drives: one user message
// in, one final answer out. Implemented by the agent loop.
type Converser interface {
	Converse(ctx context.Context, input string) (string, error)
}
