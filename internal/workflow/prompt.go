package workflow

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

// InteractiveConfirmer prompts on the terminal. When stdin is not a terminal
// it declines without asking.
type InteractiveConfirmer struct {
	ErrWriter io.Writer
	// IsTerminal overrides terminal detection in tests.
	IsTerminal func() bool
}

func (c *InteractiveConfirmer) Confirm(prompt string) (bool, error) {
	isTerminal := c.IsTerminal
	if isTerminal == nil {
		isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if !isTerminal() {
		if c.ErrWriter != nil {
			fmt.Fprintf(c.ErrWriter, "%s [non-interactive, declined; use --yes to accept]\n", prompt)
		}
		return false, nil
	}

	answer := false
	err := survey.AskOne(&survey.Confirm{Message: prompt, Default: false}, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return answer, nil
}

// AutoConfirmer answers every question with yes (--yes).
type AutoConfirmer struct {
	ErrWriter io.Writer
}

func (c AutoConfirmer) Confirm(prompt string) (bool, error) {
	if c.ErrWriter != nil {
		fmt.Fprintf(c.ErrWriter, "%s [auto-confirmed, --yes is set]\n", prompt)
	}
	return true, nil
}
