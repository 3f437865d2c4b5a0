package plan

import (
	"strings"

	"github.com/samzong/git-sync/internal/shell"
)

// Invocation is a command kept as an argument vector until it is executed.
// String renders it the way a user would type it, for dry runs and echo.
type Invocation interface {
	Argv() []string
	String() string
}

// Arg is one word of a local command. Quoted words are rendered inside
// double quotes.
type Arg struct {
	Value  string
	Quoted bool
}

// Local is a command run on this machine.
type Local struct {
	Args []Arg
}

// NewLocal builds a Local from plain words.
func NewLocal(words ...string) Local {
	args := make([]Arg, 0, len(words))
	for _, w := range words {
		args = append(args, Arg{Value: w})
	}
	return Local{Args: args}
}

// With appends a plain word.
func (l Local) With(word string) Local {
	l.Args = append(append([]Arg(nil), l.Args...), Arg{Value: word})
	return l
}

// WithQuoted appends a word rendered in double quotes.
func (l Local) WithQuoted(word string) Local {
	l.Args = append(append([]Arg(nil), l.Args...), Arg{Value: word, Quoted: true})
	return l
}

func (l Local) Argv() []string {
	argv := make([]string, 0, len(l.Args))
	for _, a := range l.Args {
		argv = append(argv, a.Value)
	}
	return argv
}

func (l Local) String() string {
	words := make([]string, 0, len(l.Args))
	for _, a := range l.Args {
		if a.Quoted {
			words = append(words, `"`+shell.EscapeDoubleQuotes(a.Value)+`"`)
			continue
		}
		words = append(words, a.Value)
	}
	return strings.Join(words, " ")
}

// Remote runs Script inside Dir on Host through a single ssh invocation.
type Remote struct {
	SSH          []string
	ForwardAgent bool
	Host         string
	Dir          string
	Script       string
}

// Composite is the command line handed to the remote shell.
func (r Remote) Composite() string {
	return "cd " + shell.QuoteWord(r.Dir) + " && " + r.Script
}

func (r Remote) Argv() []string {
	argv := append([]string(nil), r.ssh()...)
	if r.ForwardAgent {
		argv = append(argv, "-A")
	}
	return append(argv, r.Host, r.Composite())
}

// String keeps the agent flag slot even when it is empty, so a plain sync
// renders as `ssh  host "..."`.
func (r Remote) String() string {
	flags := ""
	if r.ForwardAgent {
		flags = "-A"
	}
	ssh := make([]string, 0, len(r.ssh()))
	for _, w := range r.ssh() {
		ssh = append(ssh, shell.QuoteWord(w))
	}
	return strings.Join(ssh, " ") + " " + flags + " " + r.Host +
		` "` + shell.EscapeDoubleQuotes(r.Composite()) + `"`
}

func (r Remote) ssh() []string {
	if len(r.SSH) == 0 {
		return []string{"ssh"}
	}
	return r.SSH
}
