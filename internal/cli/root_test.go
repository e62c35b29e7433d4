package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatlake/beatlake/internal/cli/config"

	_ "github.com/beatlake/beatlake/pkg/adapters/duckdb" // register the engine adapter
)

// execute runs the CLI with the given args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "beatlake v")
}

func TestRootCommand_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "Built with Go and DuckDB")
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}

func TestRunCommand_UnknownStageFlag(t *testing.T) {
	_, err := execute(t, "run", "--stage", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

const (
	testSong = `{"num_songs": 1, "song_id": "S1", "title": "Imagine", "artist_id": "A1", ` +
		`"artist_name": "Lennon", "artist_location": "New York", "artist_latitude": 40.7, ` +
		`"artist_longitude": -74.0, "year": 1971, "duration": 183.5}`
	testEvent = `{"artist": "Lennon", "auth": "Logged In", "firstName": "Ada", "gender": "F", ` +
		`"itemInSession": 0, "lastName": "Lovelace", "length": 183.5, "level": "paid", ` +
		`"location": "Denver, CO", "method": "PUT", "page": "NextSong", "registration": 1540000000000.0, ` +
		`"sessionId": 583, "song": "Imagine", "status": 200, "ts": 86400000, "userAgent": "Mozilla/5.0", "userId": "7"}`
)

func TestCLI_RunEndToEnd(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "input")
	output := filepath.Join(root, "output")
	statePath := filepath.Join(root, "ledger", "state.db")

	songPath := filepath.Join(input, "song_data", "A", "B", "C", "TRAAA01.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(songPath), 0750))
	require.NoError(t, os.WriteFile(songPath, []byte(testSong), 0600))

	eventPath := filepath.Join(input, "log_data", "2018-11-01-events.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(eventPath), 0750))
	require.NoError(t, os.WriteFile(eventPath, []byte(testEvent), 0600))

	out, err := execute(t,
		"run",
		"--input", input,
		"--output", output,
		"--state", statePath,
		"--env", "test",
	)
	require.NoError(t, err, "run output: %s", out)
	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "songs")
	assert.Contains(t, out, "events")

	// All five tables were written
	for _, table := range []string{"songs", "artists", "users", "time", "songplays"} {
		info, err := os.Stat(filepath.Join(output, table))
		require.NoError(t, err, "missing output table %s", table)
		assert.True(t, info.IsDir())
	}

	// The ledger survives the run and feeds the runs command
	out, err = execute(t, "runs", "--state", statePath, "--env", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Stages:")
}

func TestCLI_RunsWithoutLedger(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")
	_, err := execute(t, "runs", "--state", statePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run ledger")
}
