package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pulse-mapper/internal/pulse"
	"pulse-mapper/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// run executes the CLI with a file store in a temporary directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("PULSEMAP_STORE_DRIVER", "file")
	if os.Getenv("PULSEMAP_STORE_DIR") == "" {
		t.Setenv("PULSEMAP_STORE_DIR", filepath.Join(t.TempDir(), "templates"))
	}

	return runApp(t, newApp(), args...)
}

func runApp(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := a.newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := a.execute(cmd)

	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "testdata/scan.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ok    testdata/scan.yaml (3 templates)")
}

func TestCheck_ReportsEveryFile(t *testing.T) {
	out, err := run(t, "check", "testdata/broken.yaml", "testdata/scan.yaml", "testdata/missing.yaml")
	assert.ErrorIs(t, err, errCheckFailed)

	assert.Contains(t, out, "FAIL  testdata/broken.yaml")
	assert.Contains(t, out, "unknown_template")
	assert.Contains(t, out, "did you mean sine?")
	assert.Contains(t, out, "ok    testdata/scan.yaml")
	assert.Contains(t, out, "FAIL  testdata/missing.yaml")
}

// syncCounter counts Sync calls reaching the wrapped core.
type syncCounter struct {
	zapcore.Core
	syncs int
}

func (c *syncCounter) Sync() error {
	c.syncs++
	return nil
}

func TestExecute_SyncsLoggerOnFailure(t *testing.T) {
	counter := &syncCounter{Core: zapcore.NewNopCore()}

	a := newApp()
	a.logOpts = []zap.Option{zap.WrapCore(func(zapcore.Core) zapcore.Core { return counter })}

	_, err := runApp(t, a, "check", "testdata/broken.yaml")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Equal(t, 1, counter.syncs)
}

func TestCheck_JSON(t *testing.T) {
	out, err := run(t, "check", "-o", "json", "testdata/scan.yaml", "testdata/broken.yaml")
	assert.ErrorIs(t, err, errCheckFailed)

	var results []checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "testdata/scan.yaml", results[0].File)
	assert.True(t, results[0].ok())
	assert.False(t, results[1].ok())
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", "testdata/scan.yaml", "scan")
	require.NoError(t, err)

	assert.Contains(t, out, "scan (sequence)")
	assert.Contains(t, out, "parameters:   a, t_duration, t_meas")
	assert.Contains(t, out, "measurements: N, charge_scan, dbz_fid")
	assert.Contains(t, out, "channels:     default")
}

func TestInspect_UnknownTemplate(t *testing.T) {
	_, err := run(t, "inspect", "testdata/scan.yaml", "scna")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean scan?`)
}

func TestInspect_Dump(t *testing.T) {
	out, err := run(t, "inspect", "--dump", "testdata/scan.yaml", "leaf")
	require.NoError(t, err)
	assert.Contains(t, out, "leaf: (*pulse.FunctionTemplate)")
}

func TestBind(t *testing.T) {
	out, err := run(t, "bind", "testdata/scan.yaml", "scan",
		"--set", "a=1", "--set", "t_duration=10", "--set", "t_meas=4")
	require.NoError(t, err)

	assert.Contains(t, out, "duration: 20")
	assert.Contains(t, out, "charge_scan: [0, +4]")
	assert.Contains(t, out, "dbz_fid: [10, +4]")
	assert.Contains(t, out, "N: [0, +2] [10, +2]")
}

func TestBind_Diagnostics(t *testing.T) {
	out, err := run(t, "bind", "testdata/scan.yaml", "scan",
		"--set", "a=1", "--set", "t_duration=10", "--set", "t_meas=20")
	require.Error(t, err)

	assert.True(t, errors.Is(err, pulse.ErrOutOfBoundsMeasurement))
	assert.Contains(t, out, "out_of_bounds_measurement")
}

func TestBind_InvalidValue(t *testing.T) {
	_, err := run(t, "bind", "testdata/scan.yaml", "scan", "--set", "a")
	assert.Error(t, err)

	_, err = run(t, "bind", "testdata/scan.yaml", "scan", "--set", "a=x+1")
	assert.Error(t, err)
}

func TestParseValues(t *testing.T) {
	values, err := parseValues([]string{"a=1.5", " omega = 2*pi ", "n=3"})
	require.NoError(t, err)

	assert.Equal(t, 1.5, values["a"])
	assert.InDelta(t, 6.283185307179586, values["omega"], 1e-12)
	assert.Equal(t, 3.0, values["n"])
}

func TestStore(t *testing.T) {
	t.Setenv("PULSEMAP_STORE_DIR", filepath.Join(t.TempDir(), "templates"))

	out, err := run(t, "store", "save", "testdata/scan.yaml", "scan", "reps")
	require.NoError(t, err)
	assert.Contains(t, out, "saved scan (sequence)")
	assert.Contains(t, out, "saved reps (repetition)")

	out, err = run(t, "store", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "reps")
	assert.Contains(t, out, "scan")

	out, err = run(t, "store", "show", "reps")
	require.NoError(t, err)
	assert.Contains(t, out, "parameters:   a, n, t_duration, t_meas")

	out, err = run(t, "store", "bind", "reps",
		"-s", "a=1", "-s", "t_duration=10", "-s", "t_meas=4", "-s", "n=2")
	require.NoError(t, err)
	assert.Contains(t, out, "duration: 40")
	assert.Contains(t, out, "charge_scan: [0, +4] [20, +4]")

	_, err = run(t, "store", "delete", "scan")
	require.NoError(t, err)

	_, err = run(t, "store", "show", "scan")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "check", "-o", "xml", "testdata/scan.yaml")
	assert.Error(t, err)
}
