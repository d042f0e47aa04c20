package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/testutil"
	"github.com/joshuapare/pagestore/pkg/types"
)

func run(t *testing.T, fn func() error) string {
	t.Helper()
	out, err := captureOutput(t, fn)
	require.NoError(t, err, out)
	return out
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCreateAndInfo(t *testing.T) {
	resetFlags()
	path := testStorePath(t)

	out := run(t, func() error { return runCreate([]string{path}) })
	assertContains(t, out, []string{"Created", "4096 pages", "4095 free"})

	_, err := captureOutput(t, func() error { return runCreate([]string{path}) })
	require.ErrorContains(t, err, "already exists")

	out = run(t, func() error { return runInfo([]string{path}) })
	assertContains(t, out, []string{"Chapters: 1", "Free pages: 4095", "Used pages: 0", "Size: 16.0 MB"})

	jsonOut = true
	defer resetFlags()
	result := assertJSON(t, run(t, func() error { return runInfo([]string{path}) }))
	require.EqualValues(t, 4096, result["pages"])
	require.EqualValues(t, 1, result["first_free"])
}

func TestInfoMissingStore(t *testing.T) {
	resetFlags()
	_, err := captureOutput(t, func() error { return runInfo([]string{testStorePath(t)}) })
	require.ErrorContains(t, err, "does not exist")
}

func TestChainRoundTrip(t *testing.T) {
	resetFlags()
	path := testStorePath(t)
	data := testutil.Pattern(2*format.PayloadSize+321, 5)

	out := run(t, func() error { return runAlloc([]string{path}) })
	require.Equal(t, "1\n", out)

	run(t, func() error { return runPut(nil, []string{path, "1", writeInput(t, data)}) })

	out = run(t, func() error { return runGet([]string{path, "1"}) })
	require.Equal(t, data, []byte(out))

	out = run(t, func() error { return runLength([]string{path, "1"}) })
	require.Equal(t, "8487\n", out)

	getOffset, getCount = format.PayloadSize-2, 4
	out = run(t, func() error { return runGet([]string{path, "1"}) })
	require.Equal(t, data[format.PayloadSize-2:format.PayloadSize+2], []byte(out))

	getOffset, getCount = 0, 0
	putAt = int64(len(data))
	run(t, func() error { return runPut(strings.NewReader("tail"), []string{path, "1"}) })
	putAt = -1
	out = run(t, func() error { return runLength([]string{path, "1"}) })
	require.Equal(t, "8491\n", out)

	run(t, func() error { return runPut(strings.NewReader("short"), []string{path, "1"}) })
	out = run(t, func() error { return runGet([]string{path, "1"}) })
	require.Equal(t, "short", out)

	run(t, func() error { return runFree([]string{path, "1"}) })
	_, err := captureOutput(t, func() error { return runLength([]string{path, "1"}) })
	require.ErrorIs(t, err, types.ErrInvalidHandle)
}

func TestAllocSizeAndFreelist(t *testing.T) {
	resetFlags()
	defer resetFlags()
	path := testStorePath(t)

	allocSize = 2*format.PayloadSize + 1
	require.Equal(t, "1\n", run(t, func() error { return runAlloc([]string{path}) }))
	allocSize = 0

	freelistLimit = 3
	out := run(t, func() error { return runFreelist([]string{path}) })
	require.Equal(t, "4\n5\n6\n", out)

	jsonOut = true
	page := assertJSON(t, run(t, func() error { return runPage([]string{path, "1"}) }))
	require.EqualValues(t, 2, page["link"])
	require.Equal(t, false, page["free"])
	require.Equal(t, true, page["valid"])
}

func TestValidateCommand(t *testing.T) {
	resetFlags()
	defer resetFlags()
	path := testStorePath(t)

	run(t, func() error { return runAlloc([]string{path}) })
	run(t, func() error { return runPut(bytes.NewReader([]byte("hello")), []string{path, "1"}) })

	out := run(t, func() error { return runValidate(t.Context(), []string{path}) })
	assertContains(t, out, []string{"Result: ✓ VALID"})

	testutil.FlipByte(t, path, 3*format.PageSize+100)
	testutil.FlipByte(t, path, 7*format.PageSize+100)

	out, err := captureOutput(t, func() error { return runValidate(t.Context(), []string{path}) })
	require.ErrorIs(t, err, types.ErrChecksum)
	assertContains(t, out, []string{"INVALID"})

	validateDeep = true
	jsonOut = true
	out, err = captureOutput(t, func() error { return runValidate(t.Context(), []string{path}) })
	require.Error(t, err)
	result := assertJSON(t, out)
	require.Equal(t, false, result["valid"])
	require.Equal(t, []any{float64(3), float64(7)}, result["bad_pages"])
}

func TestPasswordFromEnvironment(t *testing.T) {
	resetFlags()
	path := testStorePath(t)
	t.Setenv(passwordEnv, "secret")

	run(t, func() error { return runAlloc([]string{path}) })
	run(t, func() error { return runPut(strings.NewReader("classified"), []string{path, "1"}) })
	require.Equal(t, "classified", run(t, func() error { return runGet([]string{path, "1"}) }))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, bytes.Contains(raw, []byte("classified")))

	t.Setenv(passwordEnv, "")
	_, err = captureOutput(t, func() error { return runGet([]string{path, "1"}) })
	require.ErrorIs(t, err, types.ErrSecurity)
}

func TestConfigFile(t *testing.T) {
	resetFlags()
	defer resetFlags()
	path := testStorePath(t)

	configPath = filepath.Join(t.TempDir(), testutil.TestConfigName)
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  verify_on_read: true\n"), 0o644))

	run(t, func() error { return runAlloc([]string{path}) })
	run(t, func() error { return runPut(strings.NewReader("checked"), []string{path, "1"}) })
	testutil.FlipByte(t, path, format.PageSize+200)

	_, err := captureOutput(t, func() error { return runGet([]string{path, "1"}) })
	require.ErrorIs(t, err, types.ErrChecksum)

	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = captureOutput(t, func() error { return runInfo([]string{path}) })
	require.ErrorContains(t, err, "does not exist")
}
