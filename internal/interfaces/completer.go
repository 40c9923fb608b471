package interfaces

import "context"

// Completer sends one rendered prompt to a language model and returns its reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and errors.
	Name() string
}
