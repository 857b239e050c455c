package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runWatchCommand executes a fresh watch command against scripted stdin.
func runWatchCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestWatchCommand_AddAndDrain(t *testing.T) {
	out, err := runWatchCommand(t, "add 9 3 7 1\ndrain\nquit\n", "--by", "numeric")
	require.NoError(t, err)

	// The append lands unsorted at the tail, then the drained sort
	// reorders the touched range.
	assert.Contains(t, out, "~ (0,-0,+4) -> [9 3 7 1]")
	assert.Contains(t, out, "~ (0,-4,+4) -> [1 3 7 9]")
}

func TestWatchCommand_IncrementalOffSortsSynchronously(t *testing.T) {
	out, err := runWatchCommand(t, "inc off\nadd 5 2 8\nquit\n", "--by", "numeric")
	require.NoError(t, err)

	// No pump needed: the mutation itself carries the sorted result.
	assert.Contains(t, out, "~ (0,-0,+3) -> [2 5 8]")
	assert.NotContains(t, out, "[5 2 8]")
}

func TestWatchCommand_Dump(t *testing.T) {
	out, err := runWatchCommand(t, "add 9 3\ndrain\ndump\nquit\n", "--by", "numeric")
	require.NoError(t, err)

	assert.Contains(t, out, "source:     [9 3]")
	assert.Contains(t, out, "projection: [3 9]")
	assert.Contains(t, out, "pending:    0")
}

func TestWatchCommand_RemoveAfterDrain(t *testing.T) {
	out, err := runWatchCommand(t, "add 9 3 7\ndrain\nrm 0\ndrain\nquit\n", "--by", "numeric")
	require.NoError(t, err)

	// Removing source position 0 (the value 9) drops projected position 2.
	assert.Contains(t, out, "~ (2,-1,+0) -> [3 7]")
}

func TestWatchCommand_SorterNone(t *testing.T) {
	out, err := runWatchCommand(t, "inc off\nadd 9 3\nsorter none\nquit\n", "--by", "numeric")
	require.NoError(t, err)

	// Detaching the comparator reverts to source order.
	assert.Contains(t, out, "~ (0,-2,+2) -> [9 3]")
}

func TestWatchCommand_PumpIdle(t *testing.T) {
	out, err := runWatchCommand(t, "pump\nquit\n", "--by", "numeric")
	require.NoError(t, err)
	assert.Contains(t, out, "idle")
}

func TestWatchCommand_UnknownCommand(t *testing.T) {
	out, err := runWatchCommand(t, "bogus\nquit\n")
	require.NoError(t, err)
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestWatchCommand_IndexOutOfRange(t *testing.T) {
	out, err := runWatchCommand(t, "rm 5\nquit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "error: index 5 out of range [0,0)")
}

func TestWatchCommand_UsageLineKeepsSessionAlive(t *testing.T) {
	out, err := runWatchCommand(t, "ins\nadd a\nquit\n", "--by", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "usage: ins INDEX VALUE")
	assert.Contains(t, out, "~ (0,-0,+1) -> [a]")
}

func TestWatchCommand_EndOfInputEndsSession(t *testing.T) {
	out, err := runWatchCommand(t, "add a\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Watching a live projection")
}

func TestWatchCommand_InvalidSortKeyFlag(t *testing.T) {
	_, err := runWatchCommand(t, "", "--by", "alphabetical")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
