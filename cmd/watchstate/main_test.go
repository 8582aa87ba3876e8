package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/test/testutil"
)

type cliEnv struct {
	configFile string
	dbPath     string
}

func newCLIEnv(t *testing.T) cliEnv {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "watchstate.db")
	configFile := filepath.Join(dir, "watchstate.yaml")

	yaml := fmt.Sprintf(`database:
  driver: sqlite
  path: %s
logger:
  output_path: stderr
  level: error
catalog:
  cache_ttl: 0s
invalidation:
  backend: none
`, dbPath)
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0o600))
	return cliEnv{configFile: configFile, dbPath: dbPath}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.configFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func (e cliEnv) seed(t *testing.T, show testutil.ShowFixture) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(e.dbPath+"?_foreign_keys=on"), &gorm.Config{})
	require.NoError(t, err)
	testutil.SeedShow(t, db, show)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func decodeResult(t *testing.T, out string) domain.Result {
	t.Helper()
	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return res
}

func TestCLI_FavoriteMarkAndRemove(t *testing.T) {
	env := newCLIEnv(t)
	profile := uuid.NewString()

	out, err := env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	env.seed(t, testutil.ScenarioShow(1))

	out, err = env.run(t, "--profile", profile, "favorite", "add", "1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, decodeResult(t, out).Outcome)

	out, err = env.run(t, "--profile", profile, "mark", "show", "1", "watched")
	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, domain.OutcomeApplied, res.Outcome)
	require.Len(t, res.Affected, 1)
	assert.Equal(t, int64(1), res.Affected[0].ShowID)

	out, err = env.run(t, "--profile", profile, "status", "episode", "1001")
	require.NoError(t, err)
	assert.Equal(t, "WATCHED", strings.TrimSpace(out))

	out, err = env.run(t, "--profile", profile, "mark", "episode", "1001", "not_watched")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, decodeResult(t, out).Outcome)

	out, err = env.run(t, "--profile", profile, "status", "show", "1")
	require.NoError(t, err)
	assert.Equal(t, "WATCHING", strings.TrimSpace(out))

	out, err = env.run(t, "--profile", profile, "next-up")
	require.NoError(t, err)
	var shows []domain.NextUpShow
	require.NoError(t, json.Unmarshal([]byte(out), &shows))
	require.Len(t, shows, 1)
	assert.Equal(t, int64(1), shows[0].ShowID)

	out, err = env.run(t, "--profile", profile, "favorite", "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, decodeResult(t, out).Outcome)

	_, err = env.run(t, "--profile", profile, "status", "show", "1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCLI_FailedOutcomeExitsWithError(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "migrate")
	require.NoError(t, err)

	out, err := env.run(t, "--profile", uuid.NewString(), "mark", "show", "42", "WATCHED")
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))
	assert.Equal(t, domain.OutcomeNotFound, decodeResult(t, out).Outcome)
}

func TestCLI_ArgumentValidation(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "mark", "show", "1", "WATCHED")
	assert.ErrorContains(t, err, "--profile is required")

	_, err = env.run(t, "--profile", "not-a-uuid", "status", "show", "1")
	assert.ErrorContains(t, err, "invalid profile id")

	_, err = env.run(t, "--profile", uuid.NewString(), "favorite", "add", "abc")
	assert.ErrorContains(t, err, "invalid id")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(fmt.Errorf("boom")))
	assert.Equal(t, 2, exitCode(pkgerrors.BadRequest("status")))
	assert.Equal(t, 3, exitCode(pkgerrors.NotFound("show")))
	assert.Equal(t, 4, exitCode(pkgerrors.CascadeAborted("seasons")))
	assert.Equal(t, 1, exitCode(pkgerrors.Internal("db", fmt.Errorf("reset"))))
}
