package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/crush-connector/internal/app"
	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/db/dbtest"
	"github.com/oggyb/crush-connector/internal/logger"
	"github.com/oggyb/crush-connector/internal/mail"
	"github.com/oggyb/crush-connector/internal/server"
	crushsvc "github.com/oggyb/crush-connector/internal/service/crush"
)

func testEngine(t *testing.T) *crush.Engine {
	t.Helper()
	engine, err := crush.NewEngine(dbtest.Open(t), crush.Settings{
		DefaultAllowance: 3,
		DigestKey:        "cli-test-key",
	}, mail.NewLogSender(logger.Discard()), logger.Discard())
	require.NoError(t, err)
	return engine
}

// run executes crushctl with args against engine and returns stdout.
func run(t *testing.T, engine *crush.Engine, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(&RootOptions{Open: func() (*crush.Engine, error) { return engine, nil }})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, path := range [][]string{
		{"checkpoints", "add"},
		{"checkpoints", "list"},
		{"checkpoints", "import"},
		{"people", "register"},
		{"people", "search"},
		{"people", "show"},
		{"people", "normalize-names"},
		{"match", "check"},
		{"quota"},
		{"submit"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, testEngine(t), "--format", "xml", "checkpoints", "list")
	assert.ErrorContains(t, err, "invalid format")
}

func TestCheckpointCommands(t *testing.T) {
	engine := testEngine(t)

	out, err := run(t, engine, "checkpoints", "add", "2099-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "added checkpoint 2099-03-01")

	_, err = run(t, engine, "checkpoints", "add", "2099-03-01")
	assert.ErrorIs(t, err, crush.ErrDuplicateCheckpoint)

	schedule := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(schedule, []byte("checkpoints:\n  - 2099-01-01\n  - 2099-03-01\n"), 0o600))
	out, err = run(t, engine, "--format", "json", "checkpoints", "import", schedule)
	require.NoError(t, err)
	var imported map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, []string{"2099-01-01"}, imported["added"])
	assert.Equal(t, []string{"2099-03-01"}, imported["skipped"])

	out, err = run(t, engine, "checkpoints", "list")
	require.NoError(t, err)
	assert.Equal(t, "2099-01-01\n2099-03-01\n", out)
}

func TestPeopleCommands(t *testing.T) {
	engine := testEngine(t)

	out, err := run(t, engine, "people", "register", "Alice@Y.edu", "Alice", "Marie", "Smith")
	require.NoError(t, err)
	assert.Equal(t, "alice@y.edu\tAlice Marie Smith\n", out)

	_, err = run(t, engine, "people", "register", "bob@y.edu", "Bob Stone")
	require.NoError(t, err)

	out, err = run(t, engine, "people", "normalize-names")
	require.NoError(t, err)
	assert.Contains(t, out, "normalized 1 name(s)")

	out, err = run(t, engine, "--format", "json", "people", "search", "ali")
	require.NoError(t, err)
	var found struct {
		People []personOut `json:"people"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found.People, 1)
	assert.Equal(t, "Alice Smith", found.People[0].Name)

	out, err = run(t, engine, "people", "search", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "next page: --page ")
}

func TestMatchAndQuotaCommands(t *testing.T) {
	engine := testEngine(t)
	ctx := context.Background()
	_, err := engine.AddCheckpoint(ctx, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	for _, email := range []string{"alice@y.edu", "bob@y.edu"} {
		_, err := engine.Directory().Register(ctx, email, "Some One")
		require.NoError(t, err)
	}
	_, err = engine.Submit(ctx, "bob@y.edu", []string{"alice@y.edu"})
	require.NoError(t, err)

	out, err := run(t, engine, "match", "check", "alice@y.edu", "bob@y.edu")
	require.NoError(t, err)
	assert.Equal(t, "match\n", out)

	out, err = run(t, engine, "match", "check", "bob@y.edu", "alice@y.edu")
	require.NoError(t, err)
	assert.Equal(t, "no match\n", out)

	out, err = run(t, engine, "quota", "bob@y.edu")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 3 left")
}

func TestSubmitCommand(t *testing.T) {
	engine := testEngine(t)
	ctx := context.Background()
	_, err := engine.AddCheckpoint(ctx, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	_, err = engine.Directory().Register(ctx, "alice@y.edu", "Alice Smith")
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	appCtx := app.New(nil, nil, logger.Discard(), engine)
	srv := server.NewGRPCServer(crushsvc.NewRegistrar(appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	out, err := run(t, engine, "--addr", lis.Addr().String(), "submit", "alice@y.edu", "bob@y.edu")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 3 left")

	out, err = run(t, engine, "--addr", lis.Addr().String(), "submit", "alice@y.edu", "bad address")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid target bad address")
}

func TestPeopleShowCommand(t *testing.T) {
	engine := testEngine(t)
	ctx := context.Background()
	_, err := engine.AddCheckpoint(ctx, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	_, err = engine.Directory().Register(ctx, "alice@y.edu", "Alice Smith")
	require.NoError(t, err)
	_, err = engine.Submit(ctx, "alice@y.edu", []string{"carol@y.edu"})
	require.NoError(t, err)

	out, err := run(t, engine, "people", "show", "alice@y.edu")
	require.NoError(t, err)
	assert.Equal(t, "alice@y.edu\tAlice Smith\n2 of 3 left\n", out)

	out, err = run(t, engine, "--format", "json", "people", "show", "carol@y.edu")
	require.NoError(t, err)
	var carol struct {
		Email      string     `json:"email"`
		Registered bool       `json:"registered"`
		NotifiedAt *time.Time `json:"notified_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &carol))
	assert.Equal(t, "carol@y.edu", carol.Email)
	assert.False(t, carol.Registered)
	assert.NotNil(t, carol.NotifiedAt)

	_, err = run(t, engine, "people", "show", "ghost@y.edu")
	assert.ErrorIs(t, err, crush.ErrPersonNotFound)
}
