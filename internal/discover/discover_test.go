package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/samzong/git-sync/internal/shell"
	"github.com/samzong/git-sync/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	results []shell.Result
	err     error
	calls   [][]string
}

func (r *scriptedRunner) Run(_ context.Context, argv []string) (shell.Result, error) {
	i := len(r.calls)
	r.calls = append(r.calls, argv)
	if r.err != nil {
		return shell.Result{ExitCode: -1}, r.err
	}
	if i < len(r.results) {
		return r.results[i], nil
	}
	return shell.Result{ExitCode: 1}, nil
}

func TestFindFirstMatchingCandidate(t *testing.T) {
	runner := &scriptedRunner{results: []shell.Result{
		{ExitCode: 1, Stderr: []byte("cd: proj: No such file or directory")},
		{Stdout: []byte("Welcome to box\n/home/alice/proj/.git\n")},
	}}
	var looked []string
	opts := Options{Host: "alice@box", Progress: func(c string) { looked = append(looked, c) }}

	res, err := New(runner, nil).Find(context.Background(), opts, []string{"proj", "/home/alice/proj"})
	require.NoError(t, err)

	assert.Equal(t, Result{
		Candidate: "/home/alice/proj",
		GitDir:    "/home/alice/proj/.git",
		Name:      "alice@box",
		URL:       "ssh://alice@box/home/alice/proj/.git",
	}, res)
	assert.Equal(t, []string{"proj", "/home/alice/proj"}, looked)
	assert.Equal(t, []string{"ssh", "alice@box", "cd proj && cd .git && pwd"}, runner.calls[0])
}

func TestFindNoCandidate(t *testing.T) {
	runner := &scriptedRunner{}

	_, err := New(runner, nil).Find(context.Background(), Options{Host: "alice@box"}, []string{"proj"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate repository found on alice@box")
}

func TestFindSkipsRelativeOutput(t *testing.T) {
	runner := &scriptedRunner{results: []shell.Result{{Stdout: []byte("not-a-path\n")}}}

	_, err := New(runner, nil).Find(context.Background(), Options{Host: "alice@box"}, []string{"proj"})
	assert.Error(t, err)
}

func TestFindTransportStartFailure(t *testing.T) {
	boom := errors.New("ssh missing")
	runner := &scriptedRunner{err: boom}

	_, err := New(runner, nil).Find(context.Background(), Options{Host: "alice@box"}, []string{"proj"})
	assert.ErrorIs(t, err, boom)
}

func TestFindRequiresHost(t *testing.T) {
	_, err := New(&scriptedRunner{}, nil).Find(context.Background(), Options{}, []string{"proj"})
	assert.Error(t, err)
}

func TestLookupCommandForwardAgent(t *testing.T) {
	lookup := LookupCommand(Options{Host: "alice@box", ForwardAgent: true}, "proj")
	assert.Equal(t, `ssh -A alice@box "cd proj && cd .git && pwd"`, lookup.String())
}

func TestResultAddCommand(t *testing.T) {
	res := Result{Name: "alice@box", URL: "ssh://alice@box/home/alice/proj/.git"}
	assert.Equal(t, "git remote add alice@box ssh://alice@box/home/alice/proj/.git", res.AddCommand())
}

type fakeAdder struct {
	name, url string
	err       error
}

func (f *fakeAdder) AddRemote(name, url string) error {
	f.name, f.url = name, url
	return f.err
}

func TestRegister(t *testing.T) {
	res := Result{Name: "alice@box", URL: "ssh://alice@box/home/alice/proj/.git"}

	adder := &fakeAdder{}
	require.NoError(t, Register(adder, res))
	assert.Equal(t, "alice@box", adder.name)
	assert.Equal(t, "ssh://alice@box/home/alice/proj/.git", adder.url)

	exists := errors.New("remote already exists")
	err := Register(&fakeAdder{err: exists}, res)
	assert.ErrorIs(t, err, exists)
	assert.Contains(t, err.Error(), "failed to add remote alice@box")
}

func TestCandidates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	root := t.TempDir()
	physical := filepath.Join(root, "physical")
	require.NoError(t, os.Mkdir(physical, 0o755))
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(physical, link))

	resolvedPhysical, err := filepath.EvalSymlinks(physical)
	require.NoError(t, err)

	got := Candidates(workspace.Context{Cwd: link, RelativeCwd: "link"})
	assert.Equal(t, []string{"link", link, resolvedPhysical}, got)

	got = Candidates(workspace.Context{Cwd: resolvedPhysical, RelativeCwd: "physical"})
	assert.Equal(t, []string{"physical", resolvedPhysical}, got)
}
