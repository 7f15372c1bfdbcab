package simdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an sh script to use as the simulation executable.
// It is invoked as "stub input output [previous]".
func writeStub(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "execute.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

// copyStub copies the input file to the output file and counts its
// invocations in calls.log next to the output.
const copyStub = `echo x >> "$(dirname "$2")/calls.log"
cp "$1" "$2"`

// chainStub writes its previous-output argument (empty for a fresh
// run) into the output file.
const chainStub = `printf '%s' "$3" > "$2"`

func countCalls(t *testing.T, dir string) int {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(raw), "x")
}

func TestNewManager_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	m, err := NewManager(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, dir, m.Directory())
	assert.Equal(t, DefaultFiletype, m.Filetype())
	assert.Equal(t, DefaultExecutable, m.Executable())
	assert.DirExists(t, dir)
}

func TestSetDirectory_CreatesDirectory(t *testing.T) {
	m := newTestManager(t, "nc")
	next := filepath.Join(t.TempDir(), "elsewhere")
	require.NoError(t, m.SetDirectory(next))
	assert.DirExists(t, next)
	assert.Equal(t, next, m.Directory())
}

func TestCreate_RunsOnceAndCaches(t *testing.T) {
	m := newTestManager(t, "json")
	m.SetExecutable(writeStub(t, m.Directory(), copyStub))
	js := Params{"Hello": "World"}

	out, err := m.Create(js)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Directory(), "bbe32393a27dce7dcf06b19c668289b5db215cf0_out.json"), out)
	assert.FileExists(t, out)

	// input file is the indented canonical serialization
	in, err := m.InputPath(js)
	require.NoError(t, err)
	raw, err := os.ReadFile(in)
	require.NoError(t, err)
	want, err := marshalCanonical(js, 4)
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	// second call is a cache hit: same path, no second invocation
	again, err := m.Create(js)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, 1, countCalls(t, m.Directory()))
}

func TestCreate_ExistsSelect(t *testing.T) {
	m := newTestManager(t, "json")
	m.SetExecutable(writeStub(t, m.Directory(), copyStub))
	js := Params{"Hello": "World"}

	ok, err := m.Exists(js, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = m.Select(js, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	out, err := m.Create(js)
	require.NoError(t, err)

	ok, err = m.Exists(js, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	sel, err := m.Select(js, 0)
	require.NoError(t, err)
	assert.Equal(t, out, sel)
}

func TestCreate_RestartChain(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}

	out0, err := m.Create(js)
	require.NoError(t, err)
	out1, err := m.Create(js, WithRestart(1))
	require.NoError(t, err)
	assert.NotEqual(t, out0, out1)
	assert.True(t, strings.HasSuffix(out1, "0x1.nc"))

	// the previous-output argument handed to the executable is the
	// index-0 output path
	prev, err := os.ReadFile(out1)
	require.NoError(t, err)
	assert.Equal(t, out0, string(prev))

	count, err := m.Count(js)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreate_RestartSharesOneInputFile(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}

	_, err := m.Create(js)
	require.NoError(t, err)
	in, err := m.InputPath(js)
	require.NoError(t, err)
	info, err := os.Stat(in)
	require.NoError(t, err)

	_, err = m.Create(js, WithRestart(1))
	require.NoError(t, err)

	// not rewritten by the chain member
	after, err := os.Stat(in)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
	assert.Equal(t, info.Size(), after.Size())
}

func TestCreate_FailureRollsBack(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), `: > "$2"
echo boom >&2
exit 3`))
	js := Params{"Hello": "World"}

	out, err := m.Create(js)
	require.Error(t, err)
	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.ExitCode)
	assert.Contains(t, string(re.Stderr), "boom")

	// the intended path is returned but nothing is left on disk
	assert.Equal(t, filepath.Join(m.Directory(), "bbe32393a27dce7dcf06b19c668289b5db215cf0.nc"), out)
	assert.NoFileExists(t, out)
	in, err := m.InputPath(js)
	require.NoError(t, err)
	assert.NoFileExists(t, in)
}

func TestCreate_RestartFailureKeepsInput(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}
	_, err := m.Create(js)
	require.NoError(t, err)

	m.SetExecutable(writeStub(t, m.Directory(), `exit 1`))
	out1, err := m.Create(js, WithRestart(1))
	require.Error(t, err)
	assert.True(t, IsRunError(err))
	assert.NoFileExists(t, out1)

	// the chain's shared input file survives a failed member > 0
	in, err := m.InputPath(js)
	require.NoError(t, err)
	assert.FileExists(t, in)
	count, err := m.Count(js)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreate_ErrorPolicies(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), `echo boom >&2
exit 1`))
	js := Params{"Hello": "World"}

	var stdout, stderr bytes.Buffer
	m.SetOutput(&stdout, &stderr)

	out, err := m.Create(js, OnError(ErrorDisplay))
	require.NoError(t, err)
	assert.NoFileExists(t, out)
	assert.Contains(t, stderr.String(), "boom")

	stderr.Reset()
	_, err = m.Create(js, OnError(ErrorIgnore))
	require.NoError(t, err)
	assert.Empty(t, stderr.String())
}

func TestCreate_StdoutPolicy(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), `echo hello-from-sim
: > "$2"`))
	js := Params{"Hello": "World"}

	var stdout, stderr bytes.Buffer
	m.SetOutput(&stdout, &stderr)

	_, err := m.Create(js, OnStdout(StdoutDisplay))
	require.NoError(t, err)
	assert.Equal(t, "hello-from-sim\n", stdout.String())

	// default ignores it
	stdout.Reset()
	_, err = m.Recreate(js)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
}

func TestCreate_MissingExecutable(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(filepath.Join(m.Directory(), "does-not-exist"))

	_, err := m.Create(Params{"Hello": "World"})
	require.Error(t, err)
	assert.False(t, IsRunError(err), "a start failure is not an execution failure")
}

func TestCreate_WithName(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}

	out, err := m.Create(js, WithName("hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Directory(), "hello.nc"), out)
	assert.FileExists(t, filepath.Join(m.Directory(), "hello.json"))

	// the same name keeps working for chain members
	out1, err := m.Create(js, WithRestart(1), WithName("hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Directory(), "hello0x1.nc"), out1)

	table, err := m.Table()
	require.NoError(t, err)
	assert.Len(t, table, 1)
}

func TestCreate_NamingConflictAborts(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), copyStub))
	_, err := m.Create(Params{"Hello": "World"}, WithName("hello"))
	require.NoError(t, err)

	_, err = m.Create(Params{"Hello": "World!"}, WithName("hello"))
	require.Error(t, err)
	assert.True(t, IsNamingError(err))
	// refused before any file was touched for the new entry
	ok, err := m.Exists(Params{"Hello": "World!"}, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_GapSemantics(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}
	for n := 0; n < 3; n++ {
		_, err := m.Create(js, WithRestart(n))
		require.NoError(t, err)
	}

	// deleting an inner member leaves a gap that truncates Count
	require.NoError(t, m.Delete(js, 1))
	count, err := m.Count(js)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	files, err := m.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 0, files[0].N)

	// deleting index 0 removes the identity; the stranded index-2
	// output stays on disk but is invisible
	out2, err := m.OutputPath(js, 2)
	require.NoError(t, err)
	require.NoError(t, m.Delete(js, 0))
	in, err := m.InputPath(js)
	require.NoError(t, err)
	assert.NoFileExists(t, in)
	assert.FileExists(t, out2)
	count, err = m.Count(js)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete_RemovesRegisteredName(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"Hello": "World"}
	_, err := m.Create(js, WithName("hello"))
	require.NoError(t, err)

	require.NoError(t, m.Delete(js, 0))
	reg, err := m.Registry()
	require.NoError(t, err)
	assert.Empty(t, reg)
	assert.NoFileExists(t, filepath.Join(m.Directory(), RegistryFile))

	// the name is free again
	require.NoError(t, m.Register(Params{"Hello": "World!"}, "hello"))
}

func TestDelete_AbsentEntryIsNoop(t *testing.T) {
	m := newTestManager(t, "nc")
	require.NoError(t, m.Delete(Params{"Hello": "World"}, 0))
}

func TestFiles_SortedByIDAndN(t *testing.T) {
	m := newTestManager(t, "th")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	first := Params{"Hello": "World"}   // bbe32393...
	second := Params{"Hello2": "World"} // 5618582b...
	for n := 0; n < 3; n++ {
		_, err := m.Create(first, WithRestart(n))
		require.NoError(t, err)
	}
	for n := 0; n < 2; n++ {
		_, err := m.Create(second, WithRestart(n))
		require.NoError(t, err)
	}

	files, err := m.Files()
	require.NoError(t, err)
	require.Len(t, files, 5)
	var got []string
	for _, e := range files {
		got = append(got, fmt.Sprintf("%s/%d", e.ID[:8], e.N))
	}
	assert.Equal(t, []string{
		"5618582b/0", "5618582b/1",
		"bbe32393/0", "bbe32393/1", "bbe32393/2",
	}, got)
}

func TestTable_CollapsesChainsAndParsesContent(t *testing.T) {
	m := newTestManager(t, "th")
	m.SetExecutable(writeStub(t, m.Directory(), chainStub))
	js := Params{"x": 1}
	for n := 0; n < 2; n++ {
		_, err := m.Create(js, WithRestart(n))
		require.NoError(t, err)
	}

	table, err := m.Table()
	require.NoError(t, err)
	require.Len(t, table, 1)
	// numbers come back as json.Number, keeping their exact spelling
	assert.Equal(t, Params{"x": json.Number("1")}, table[0])
}

func TestRecreate_ForcesRerun(t *testing.T) {
	m := newTestManager(t, "json")
	m.SetExecutable(writeStub(t, m.Directory(), copyStub))
	js := Params{"Hello": "World"}

	out, err := m.Create(js)
	require.NoError(t, err)
	assert.Equal(t, 1, countCalls(t, m.Directory()))

	again, err := m.Recreate(js)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, 2, countCalls(t, m.Directory()))
}

func TestDeleteAll_RemovesEverything(t *testing.T) {
	m := newTestManager(t, "nc")
	m.SetExecutable(writeStub(t, m.Directory(), `: > "$2"`))
	_, err := m.Create(Params{"Hello": "World"}, WithName("hello"))
	require.NoError(t, err)
	_, err = m.Create(Params{"Hello": "World!"})
	require.NoError(t, err)

	// the stub itself is a foreign file: the directory must survive
	require.NoError(t, m.DeleteAll())
	assert.DirExists(t, m.Directory())
	assert.NoFileExists(t, filepath.Join(m.Directory(), RegistryFile))
	files, err := m.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDeleteAll_RemovesEmptyDirectory(t *testing.T) {
	stubDir := t.TempDir()
	m, err := NewManager(filepath.Join(t.TempDir(), "data"), "nc", writeStub(t, stubDir, `: > "$2"`))
	require.NoError(t, err)
	m.SetLogger(nil)
	_, err = m.Create(Params{"Hello": "World"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteAll())
	assert.NoDirExists(t, m.Directory())
}

func TestFiles_RecognizesPreviousSession(t *testing.T) {
	m := newTestManager(t, "json")
	m.SetExecutable(writeStub(t, m.Directory(), copyStub))
	js := Params{"a": 10}
	_, err := m.Create(js)
	require.NoError(t, err)

	// a fresh Manager over the same directory sees the entry
	other, err := NewManager(m.Directory(), "json", m.Executable())
	require.NoError(t, err)
	other.SetLogger(nil)
	files, err := other.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "d1f6451b80dda3c0531f1a593fd4a12a8c05bd05", files[0].ID)

	// and Create is a cache hit, not a re-run
	_, err = other.Create(js)
	require.NoError(t, err)
	assert.Equal(t, 1, countCalls(t, m.Directory()))
}
