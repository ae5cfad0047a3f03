package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// run executes the command tree with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(zap.NewNop())
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

const (
	part1 = "x,y\n1,2\n2,4\n"
	part2 = "x,y\n3,5\n4,4\n"
)

func TestFit_CSVPartitions(t *testing.T) {
	a := writeFile(t, "a.csv", part1)
	b := writeFile(t, "b.csv", part2)

	out, err := run(t, "fit", "--response", "1", "--predictors", "0", "--names", "intercept,x", a, b)
	require.NoError(t, err)
	require.Contains(t, out, "intercept")
	require.Contains(t, out, "0.7")
	require.Contains(t, out, "R²: 0.515789")
	require.Contains(t, out, "observations: 4  predictors: 2  rank: 2  df: 2")
	require.Contains(t, out, "condition: ok")
}

func TestFit_Repartitioned(t *testing.T) {
	a := writeFile(t, "a.csv", part1+"5,6\n6,7\n")
	b := writeFile(t, "b.csv", part2)

	direct, err := run(t, "fit", "--response", "1", "--predictors", "0", a, b)
	require.NoError(t, err)

	split, err := run(t, "fit", "--response", "1", "--predictors", "0", "--partitions", "3", "--workers", "2", a, b)
	require.NoError(t, err)
	require.Equal(t, direct, split)
}

func TestFit_RankDeficientReportsCondition(t *testing.T) {
	a := writeFile(t, "a.csv", "x,x2,y\n1,2,2\n2,4,4\n3,6,5\n4,8,4\n")

	out, err := run(t, "fit", "--response", "2", "--predictors", "0,1", a)
	require.NoError(t, err)
	require.Contains(t, out, "rank: 2")
	require.Contains(t, out, "not identifiable")
	require.Contains(t, out, "condition: rank_deficient")
}

func TestFit_ConfigFile(t *testing.T) {
	cfgPath := writeFile(t, "fit.yaml", `
csv:
  response_name: y
  predictor_names: [x]
  header: true
  intercept: true
accumulation: plain
memory_limit: 1048576
confidence: 0.95
`)
	a := writeFile(t, "a.csv", part1+part2[len("x,y\n"):])

	out, err := run(t, "fit", "--config", cfgPath, a)
	require.NoError(t, err)
	require.Contains(t, out, "R²: 0.515789")
	require.Contains(t, out, "[0.025")
}

func TestFit_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE obs (x REAL, y REAL)`)
	require.NoError(t, err)
	for _, r := range [][2]float64{{1, 2}, {2, 4}, {3, 5}, {4, 4}} {
		_, err = db.Exec(`INSERT INTO obs (x, y) VALUES (?, ?)`, r[0], r[1])
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	out, err := run(t, "fit", "--sqlite", path, "--query", "SELECT y, 1.0, x FROM obs")
	require.NoError(t, err)
	require.Contains(t, out, "R²: 0.515789")
}

func TestFit_Errors(t *testing.T) {
	_, err := run(t, "fit")
	require.ErrorContains(t, err, "no input")

	_, err = run(t, "fit", "--sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.ErrorContains(t, err, "--query")

	bad := writeFile(t, "bad.csv", "x,y\n1,abc\n")
	_, err = run(t, "fit", "--response", "1", "--predictors", "0", bad)
	require.Error(t, err)

	_, err = run(t, "fit", "--compression", "brotli", bad)
	require.Error(t, err)
}

func TestState_EncodeMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, "a.csv", part1)
	b := writeFile(t, "b.csv", part2)
	sa := filepath.Join(dir, "a.state")
	sb := filepath.Join(dir, "b.state")
	merged := filepath.Join(dir, "merged.state")

	out, err := run(t, "state", "encode", "--response", "1", "--predictors", "0", "--out", sa, a)
	require.NoError(t, err)
	require.Contains(t, out, "2 rows, 2 predictors")

	_, err = run(t, "state", "encode", "--response", "1", "--predictors", "0", "--compression", "zstd", "-o", sb, b)
	require.NoError(t, err)

	out, err = run(t, "state", "merge", "--out", merged, sa, sb)
	require.NoError(t, err)
	require.Contains(t, out, "R²: 0.515789")

	out, err = run(t, "state", "inspect", sa, sb, merged)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "rows=2 predictors=2 compensated=true compression=None")
	require.Contains(t, lines[1], "compression=Zstd")
	require.Contains(t, lines[2], "rows=4")
}

func TestState_MergeRejectsGarbage(t *testing.T) {
	junk := writeFile(t, "junk.state", "definitely not a state envelope")

	_, err := run(t, "state", "merge", junk)
	require.Error(t, err)

	_, err = run(t, "state", "inspect", junk)
	require.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	path := writeFile(t, "pts.csv", "x,y\n1,3\n2,5\n3,7\n4,9\n5,11\n")

	out, err := run(t, "analyze", "--models", "linear,logarithmic", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "linear"), lines[1])
	require.Contains(t, lines[1], "1 + 2*x")
}

func TestFit_ExactlyDetermined(t *testing.T) {
	a := writeFile(t, "a.csv", "x,y\n1,2\n2,4\n")

	out, err := run(t, "fit", "--response", "1", "--predictors", "0", a)
	require.NoError(t, err)
	require.Contains(t, out, "df: 0")
	require.Contains(t, out, "NaN")
	require.NotContains(t, out, "[0.025")
}
