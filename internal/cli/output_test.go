package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsavo-labs/remit/internal/core"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "999", FormatAmount(999))
	assert.Equal(t, "1,000", FormatAmount(1000))
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
	assert.Equal(t, "-50,000", FormatAmount(-50000))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := WrapExitError(ExitFailure, "rejected", errors.New("inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Contains(t, wrapped.Error(), "inner")
}

func TestFailure_MapsLedgerCodes(t *testing.T) {
	replay := &core.Error{Code: core.ErrCodeReplayRejected, Message: "nonce mismatch"}
	err := failure(replay)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "REPLAY_REJECTED")

	storage := &core.Error{Code: core.ErrCodeStorage, Message: "db gone"}
	assert.Equal(t, ExitCommandError, GetExitCode(failure(storage)))

	assert.Equal(t, ExitCommandError, GetExitCode(failure(errors.New("plain"))))
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"id": 7}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["id"])
}

func TestOutputFormatter_TextError(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Error("NOT_FOUND", "no such goal", nil))
	assert.Contains(t, buf.String(), "Error [NOT_FOUND]: no such goal")
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("opened %s", "remit.db")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "opened remit.db")
}
