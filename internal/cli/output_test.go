package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	inner := fmt.Errorf("file missing")
	err := WrapExitError(ExitCommandError, "failed to load parameters", inner)
	assert.Equal(t, "failed to load parameters: file missing", err.Error())
	assert.Equal(t, inner, errors.Unwrap(err))

	bare := &ExitError{Code: ExitFailure, Message: "simulation failed"}
	assert.Equal(t, "simulation failed", bare.Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad flag", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	// wrapped ExitErrors are still found
	wrapped := fmt.Errorf("context: %w", WrapExitError(ExitCommandError, "bad flag", nil))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestOutputFormatter_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success("./data/out.nc", map[string]string{"outputfile": "./data/out.nc"}))
	assert.Equal(t, "./data/out.nc\n", buf.String())
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success("ignored", map[string]string{"key": "abc"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"key": "abc"}, resp.Data)
}
