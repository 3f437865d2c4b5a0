package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/bep/helpers/envhelpers"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestScripts(t *testing.T) {
	params := commonTestScriptsParam
	params.Dir = "testdata/script"
	// params.TestWork = true
	testscript.Run(t, params)
}

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"git-sync": main,
		"ssh":      fakeSSH,
	})
}

// fakeSSH stands in for ssh: it ignores the host and runs the remote command
// with bash inside $FAKE_SSH_HOME.
func fakeSSH() {
	args := os.Args[1:]
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ssh [-A] host command")
		os.Exit(255)
	}

	cmd := exec.Command("bash", "-c", args[len(args)-1])
	cmd.Dir = os.Getenv("FAKE_SSH_HOME")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "ssh:", err)
		os.Exit(255)
	}
	os.Exit(0)
}

func testSetupFunc() func(env *testscript.Env) error {
	return func(env *testscript.Env) error {
		var keyVals []string
		// Commit identity and isolation from the machine's git configuration.
		keyVals = append(keyVals,
			"GIT_AUTHOR_NAME", "git-sync test",
			"GIT_AUTHOR_EMAIL", "git-sync@example.com",
			"GIT_COMMITTER_NAME", "git-sync test",
			"GIT_COMMITTER_EMAIL", "git-sync@example.com",
			"GIT_CONFIG_NOSYSTEM", "1",
			"GIT_CONFIG_GLOBAL", os.DevNull,
			"XDG_CONFIG_HOME", env.WorkDir+"/.config",
			"GIT_CEILING_DIRECTORIES", env.WorkDir,
		)
		envhelpers.SetEnvVars(&env.Vars, keyVals...)
		return nil
	}
}

var commonTestScriptsParam = testscript.Params{
	Setup: func(env *testscript.Env) error {
		return testSetupFunc()(env)
	},
}
