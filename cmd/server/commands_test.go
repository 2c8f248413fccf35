package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var bucketArgs = []string{"--access-key", "AKIA", "--secret-key", "secret", "--bucket", "files"}

// runCommand runs one CLI invocation against a shared app
func runCommand(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cliApp := newCLI(func() (*app, error) { return a, nil })
	cliApp.Writer = &out
	cliApp.ErrWriter = &out
	cliApp.ExitErrHandler = func(*cli.Context, error) {}

	err := cliApp.Run(append([]string{"iron-files"}, args...))
	return out.String(), err
}

func command(name string, extra ...string) []string {
	args := append([]string{name}, bucketArgs...)
	return append(args, extra...)
}

func TestCommands_MkdirUploadListRemove(t *testing.T) {
	a := testApp(t)

	out, err := runCommand(t, a, command("mkdir", "docs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "created docs/")

	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))

	out, err = runCommand(t, a, command("upload", "--prefix", "docs", notes)...)
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded docs/notes.txt")

	out, err = runCommand(t, a, command("ls")...)
	require.NoError(t, err)
	assert.Contains(t, out, "docs/")

	out, err = runCommand(t, a, command("ls", "docs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "5 B")

	out, err = runCommand(t, a, command("rm", "docs/notes.txt")...)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted docs/notes.txt")

	out, err = runCommand(t, a, command("ls", "docs/")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "notes.txt")
}

func TestCommands_RemoveMissingKeyFails(t *testing.T) {
	_, err := runCommand(t, testApp(t), command("rm", "ghost.txt")...)

	require.Error(t, err)
	exit, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 1, exit.ExitCode())
}

func TestCommands_MkdirRejectsNestedName(t *testing.T) {
	_, err := runCommand(t, testApp(t), command("mkdir", "a/b")...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create folder")
}

func TestCommands_UploadMissingFile(t *testing.T) {
	_, err := runCommand(t, testApp(t), command("upload", filepath.Join(t.TempDir(), "nope.bin"))...)

	require.Error(t, err)
}

func TestCommands_RequireCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET", "")

	_, err := runCommand(t, testApp(t), "ls")

	require.Error(t, err)
}

func TestCommands_ListUnknownBucket(t *testing.T) {
	_, err := runCommand(t, testApp(t), "ls", "--access-key", "AKIA", "--secret-key", "s", "--bucket", "other")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
