package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsavo-labs/remit/internal/cli"
)

// runCLI executes the root command with the given args and returns the
// combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON-format CLI response.
func decodeResponse(t *testing.T, out string) cli.CLIResponse {
	t.Helper()
	var resp cli.CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "remit.db")
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, "--format", "xml", "goals", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMutation_RequiresPrincipal(t *testing.T) {
	db := tempDB(t)
	_, err := runCLI(t, "--db", db, "goals", "create", "--name", "Education", "--target", "500")
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
	assert.Contains(t, err.Error(), "--as")
}

func TestGoals_Lifecycle(t *testing.T) {
	db := tempDB(t)

	out, err := runCLI(t, "--db", db, "--as", "alice", "--format", "json",
		"goals", "create", "--name", "Education", "--target", "500")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	out, err = runCLI(t, "--db", db, "--as", "alice", "--format", "json",
		"goals", "add", "1", "200")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(200), data["balance"])

	// Withdrawals are gated by the lock set at creation.
	_, err = runCLI(t, "--db", db, "--as", "alice", "goals", "withdraw", "1", "50")
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))

	_, err = runCLI(t, "--db", db, "--as", "alice", "goals", "unlock", "1")
	require.NoError(t, err)
	out, err = runCLI(t, "--db", db, "--as", "alice", "--format", "json",
		"goals", "withdraw", "1", "50")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, float64(150), data["balance"])

	out, err = runCLI(t, "--db", db, "--as", "alice", "goals", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Education")
	assert.Contains(t, out, "150 / 500")
}

func TestGoals_OtherPrincipalCannotMutate(t *testing.T) {
	db := tempDB(t)

	_, err := runCLI(t, "--db", db, "--as", "alice",
		"goals", "create", "--name", "Education", "--target", "500")
	require.NoError(t, err)

	_, err = runCLI(t, "--db", db, "--as", "bob", "goals", "add", "1", "10")
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))
	assert.Contains(t, err.Error(), "NOT_OWNER")
}

func TestNonce_AdvancesPerMutation(t *testing.T) {
	db := tempDB(t)

	out, err := runCLI(t, "--db", db, "--as", "alice", "nonce", "bills")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = runCLI(t, "--db", db, "--as", "alice",
		"bills", "create", "--name", "Rent", "--amount", "800")
	require.NoError(t, err)

	out, err = runCLI(t, "--db", db, "--as", "alice", "nonce", "bills")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestAudit_RecordsOperations(t *testing.T) {
	db := tempDB(t)

	_, err := runCLI(t, "--db", db, "--as", "alice",
		"bills", "create", "--name", "Rent", "--amount", "800")
	require.NoError(t, err)
	_, err = runCLI(t, "--db", db, "--as", "alice", "bills", "pay", "1")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "--format", "json", "audit", "bills")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	entries := resp.Data.([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "create", first["operation"])
	assert.Equal(t, "alice", first["caller"])
	assert.Equal(t, true, first["success"])
}

func TestAudit_UnknownLedger(t *testing.T) {
	db := tempDB(t)
	_, err := runCLI(t, "--db", db, "audit", "loans")
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
}

func TestSplit_InitAndCalc(t *testing.T) {
	db := tempDB(t)

	_, err := runCLI(t, "--db", db, "--as", "alice", "split", "init",
		"--spending", "40", "--savings", "30", "--bills", "20", "--insurance", "10")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "--format", "json", "split", "calc", "999")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(399), data["spending"])
	assert.Equal(t, float64(299), data["savings"])
	assert.Equal(t, float64(199), data["bills"])
	assert.Equal(t, float64(102), data["insurance"])

	// Percentages must sum to 100.
	_, err = runCLI(t, "--db", db, "--as", "alice", "split", "update",
		"--spending", "40", "--savings", "30", "--bills", "20", "--insurance", "9")
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))
}

func TestExportImport_RoundTrip(t *testing.T) {
	db := tempDB(t)
	snapFile := filepath.Join(t.TempDir(), "bills.json")

	_, err := runCLI(t, "--db", db, "--as", "alice",
		"bills", "create", "--name", "Rent", "--amount", "800")
	require.NoError(t, err)

	_, err = runCLI(t, "--db", db, "--as", "alice",
		"export", "bills", "--out", snapFile)
	require.NoError(t, err)

	_, err = runCLI(t, "--db", db, "--as", "alice", "bills", "pay", "1")
	require.NoError(t, err)

	_, err = runCLI(t, "--db", db, "--as", "alice", "import", "bills", snapFile)
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "--as", "alice", "bills", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rent")
}

func TestImport_TamperedSnapshotRejected(t *testing.T) {
	db := tempDB(t)
	snapFile := filepath.Join(t.TempDir(), "bills.json")

	_, err := runCLI(t, "--db", db, "--as", "alice",
		"bills", "create", "--name", "Rent", "--amount", "800")
	require.NoError(t, err)
	_, err = runCLI(t, "--db", db, "--as", "alice",
		"export", "bills", "--out", snapFile)
	require.NoError(t, err)

	raw, err := os.ReadFile(snapFile)
	require.NoError(t, err)
	tampered := bytes.Replace(raw, []byte(`"amount": 800`), []byte(`"amount": 9999`), 1)
	require.NotEqual(t, raw, tampered)
	require.NoError(t, os.WriteFile(snapFile, tampered, 0o644))

	_, err = runCLI(t, "--db", db, "--as", "alice", "import", "bills", snapFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKSUM_MISMATCH")
}

func TestPlanApply(t *testing.T) {
	db := tempDB(t)
	planFile := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planFile, []byte(`
owner: alice
split:
  spending: 40
  savings: 30
  bills: 20
  insurance: 10
goals:
  - name: Education
    target_amount: 500
bills:
  - name: Rent
    amount: 800
`), 0o644))

	out, err := runCLI(t, "--db", db, "--format", "json", "plan", "apply", planFile)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	out, err = runCLI(t, "--db", db, "--as", "alice", "goals", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Education")
}

func TestPlanApply_InvalidPlanWritesNothing(t *testing.T) {
	db := tempDB(t)
	planFile := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planFile, []byte(`
owner: alice
split:
  spending: 40
  savings: 30
  bills: 20
  insurance: 9
`), 0o644))

	_, err := runCLI(t, "--db", db, "plan", "apply", planFile)
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))

	out, err := runCLI(t, "--db", db, "split", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "not initialized")
}
