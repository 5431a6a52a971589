// Package invoker executes individual tasks against their assigned agent's
// model capability and decides whether failed attempts are retried. It is the
// only place the core crosses an I/O boundary; the capability itself is
// supplied by the hosting application.
package invoker

import "context"

// Capability invokes the language-model capability identified by model with
// a prompt and a structured payload, returning the raw text output. The core
// never knows which provider is behind it.
type Capability func(ctx context.Context, model, prompt string, payload map[string]any) (string, error)
