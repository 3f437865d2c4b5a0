// Package workflow provides the sync workflow orchestration logic.
package workflow

import (
	"context"

	"github.com/samzong/git-sync/internal/shell"
)

// CommandRunner executes one command and reports its exit code and output.
type CommandRunner interface {
	Run(ctx context.Context, argv []string) (shell.Result, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}
