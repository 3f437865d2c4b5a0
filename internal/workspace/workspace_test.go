package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnv struct {
	cwd  string
	home string
	err  error
}

func (f fakeEnv) CurrentDirectory() (string, error) { return f.cwd, f.err }
func (f fakeEnv) HomeDirectory() (string, error)    { return f.home, nil }

type fakeBranches struct {
	branch string
	err    error
	calls  int
}

func (f *fakeBranches) CurrentBranch(context.Context) (string, error) {
	f.calls++
	return f.branch, f.err
}

func TestResolve(t *testing.T) {
	branches := &fakeBranches{branch: "main"}
	env := fakeEnv{cwd: "/home/alice/code/proj", home: "/home/alice"}

	got, err := Resolve(context.Background(), env, branches, "")
	require.NoError(t, err)

	assert.Equal(t, Context{
		Cwd:         "/home/alice/code/proj",
		Home:        "/home/alice",
		RelativeCwd: "code/proj",
		Branch:      "main",
	}, got)
}

func TestResolveHomeOverride(t *testing.T) {
	branches := &fakeBranches{branch: "main"}
	env := fakeEnv{cwd: "/data/work/proj", home: "/home/alice"}

	got, err := Resolve(context.Background(), env, branches, "/data/work")
	require.NoError(t, err)
	assert.Equal(t, "proj", got.RelativeCwd)
	assert.Equal(t, "/data/work", got.Home)
}

func TestResolveTildeOverride(t *testing.T) {
	branches := &fakeBranches{branch: "main"}
	env := fakeEnv{cwd: "/home/alice/src/proj", home: "/home/alice"}

	got, err := Resolve(context.Background(), env, branches, "~/src")
	require.NoError(t, err)
	assert.Equal(t, "proj", got.RelativeCwd)
}

func TestResolveHomeMismatch(t *testing.T) {
	branches := &fakeBranches{branch: "main"}
	env := fakeEnv{cwd: "/srv/proj", home: "/home/alice"}

	_, err := Resolve(context.Background(), env, branches, "")
	require.Error(t, err)

	var mismatch *HomeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "/srv/proj", mismatch.Cwd)
	assert.Equal(t, "/home/alice", mismatch.Home)
	assert.Contains(t, err.Error(), "relative to your home directory")
	assert.Zero(t, branches.calls, "branch must not be queried before the home check")
}

func TestResolveRejectsDetachedHead(t *testing.T) {
	env := fakeEnv{cwd: "/home/alice/proj", home: "/home/alice"}

	_, err := Resolve(context.Background(), env, &fakeBranches{branch: "HEAD"}, "")
	assert.ErrorIs(t, err, ErrDetachedHead)
}

func TestResolveRejectsUnsafeBranch(t *testing.T) {
	env := fakeEnv{cwd: "/home/alice/proj", home: "/home/alice"}

	_, err := Resolve(context.Background(), env, &fakeBranches{branch: "x;rm"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shell metacharacter")
}

func TestResolvePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Resolve(context.Background(), fakeEnv{err: boom}, &fakeBranches{branch: "main"}, "")
	assert.ErrorIs(t, err, boom)

	env := fakeEnv{cwd: "/home/alice/proj", home: "/home/alice"}
	_, err = Resolve(context.Background(), env, &fakeBranches{err: boom}, "")
	assert.ErrorIs(t, err, boom)
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		name    string
		home    string
		cwd     string
		want    string
		wantErr bool
	}{
		{"descendant", "/home/alice", "/home/alice/proj", "proj", false},
		{"nested", "/home/alice", "/home/alice/a/b/c", "a/b/c", false},
		{"home itself", "/home/alice", "/home/alice", ".", false},
		{"trailing slash", "/home/alice/", "/home/alice/proj/", "proj", false},
		{"sibling", "/home/alice", "/home/bob/proj", "", true},
		{"parent", "/home/alice", "/home", "", true},
		{"prefix but not child", "/home/alice", "/home/alice2/proj", "", true},
		{"dotdot named dir", "/home/alice", "/home/alice/..proj", "..proj", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativeTo(tt.home, tt.cwd)
			if tt.wantErr {
				var mismatch *HomeMismatchError
				assert.True(t, errors.As(err, &mismatch))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogicalDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	root := t.TempDir()
	physical := filepath.Join(root, "physical")
	require.NoError(t, os.Mkdir(physical, 0o755))
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(physical, link))
	other := filepath.Join(root, "other")
	require.NoError(t, os.Mkdir(other, 0o755))

	t.Run("symlinked pwd is kept", func(t *testing.T) {
		assert.Equal(t, link, LogicalDirectory(link, physical))
	})

	t.Run("inconsistent pwd is ignored", func(t *testing.T) {
		assert.Equal(t, physical, LogicalDirectory(other, physical))
	})

	t.Run("empty or relative pwd is ignored", func(t *testing.T) {
		assert.Equal(t, physical, LogicalDirectory("", physical))
		assert.Equal(t, physical, LogicalDirectory("link", physical))
	})

	t.Run("missing pwd is ignored", func(t *testing.T) {
		assert.Equal(t, physical, LogicalDirectory(filepath.Join(root, "gone"), physical))
	})
}
