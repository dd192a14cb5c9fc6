package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/render"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// setupEnv points every file the CLI touches into a fresh temp dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PHONEBOOK_CONFIG", "")
	t.Setenv("PHONEBOOK_BACKEND", "")
	t.Setenv("PHONEBOOK_METRICS_FILE", "")
	t.Setenv("PHONEBOOK_UNIQUE_PHONES", "")
	t.Setenv("PHONEBOOK_CONTACTS_FILE", filepath.Join(dir, "contacts.csv"))
	t.Setenv("PHONEBOOK_AUDIT_LOG", filepath.Join(dir, "log.txt"))
	t.Setenv("PHONEBOOK_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decodeContacts(t *testing.T, out string) []models.Contact {
	t.Helper()
	var env struct {
		Code int              `json:"code"`
		Data []models.Contact `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.Equal(t, render.CodeOK, env.Code)
	return env.Data
}

func addJane(t *testing.T) {
	t.Helper()
	res := runCLI(t, "", "add", "--first", "Jane", "--last", "Doe", "--phone", "(555) 123-4567", "--email", "jane@example.com", "--address", "1 Main St")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, "Contact added successfully.\n", res.stdout)
}

func TestAddListUpdateDelete(t *testing.T) {
	dir := setupEnv(t)
	addJane(t)

	res := runCLI(t, "", "list", "-o", "json")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, []models.Contact{{
		FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567", Email: "jane@example.com", Address: "1 Main St",
	}}, decodeContacts(t, res.stdout))

	res = runCLI(t, "", "update", "(555) 123-4567", "--address", "2 Oak Ave")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, "Contact updated successfully.\n", res.stdout)

	res = runCLI(t, "", "search", "jane", "-o", "json")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	got := decodeContacts(t, res.stdout)
	require.Len(t, got, 1)
	assert.Equal(t, "2 Oak Ave", got[0].Address)

	res = runCLI(t, "", "delete", "(555) 123-4567")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, "Contact deleted successfully.\n", res.stdout)

	res = runCLI(t, "", "list")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, "No contacts.\n", res.stdout)

	data, err := os.ReadFile(filepath.Join(dir, "contacts.csv"))
	require.NoError(t, err)
	assert.Equal(t, "First Name,Last Name,Phone Number,Email Address,Address\r\n", string(data))

	audit, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(audit)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], ": Added contact: Jane Doe"))
	assert.True(t, strings.HasSuffix(lines[1], ": Updated contact with phone number: (555) 123-4567"))
	assert.True(t, strings.HasSuffix(lines[2], ": Deleted contact with phone number: (555) 123-4567"))
}

func TestExitCodes(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "--first", "Jane", "--last", "Doe", "--phone", "555-1234")
	assert.Equal(t, render.CodeInvalid, res.code)
	assert.Contains(t, res.stderr, "Error:")
	assert.Empty(t, res.stdout)

	res = runCLI(t, "", "update", "(555) 000-0000", "--address", "x")
	assert.Equal(t, render.CodeNotFound, res.code)

	res = runCLI(t, "", "sort", "--by", "Nickname")
	assert.Equal(t, render.CodeInvalid, res.code)

	res = runCLI(t, "", "list", "-o", "yaml")
	assert.Equal(t, render.CodeFailed, res.code)

	res = runCLI(t, "", "add", "--first", "Jane")
	assert.Equal(t, render.CodeFailed, res.code)
	assert.Contains(t, res.stderr, "phone")
}

func TestJSONErrorEnvelope(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "update", "(555) 000-0000", "--address", "x", "-o", "json")
	assert.Equal(t, render.CodeNotFound, res.code)

	var env render.Envelope
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &env))
	assert.Equal(t, render.CodeNotFound, env.Code)
	assert.Contains(t, env.Message, "(555) 000-0000")
}

func TestImportAndSort(t *testing.T) {
	dir := setupEnv(t)
	src := filepath.Join(dir, "import.csv")
	require.NoError(t, os.WriteFile(src, []byte(strings.Join([]string{
		"First Name,Last Name,Phone Number,Email Address,Address",
		"Zoe,Adams,(555) 000-0003,,",
		"Bad,Row,12345,,",
		"Amy,Baker,(555) 000-0001,amy@example.com,",
	}, "\n")+"\n"), 0o644))

	res := runCLI(t, "", "import", src)
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Imported 2 contact(s).")
	assert.Contains(t, res.stdout, "line 3 rejected (Bad Row)")

	res = runCLI(t, "", "sort", "--by", "First Name", "-o", "json")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	got := decodeContacts(t, res.stdout)
	require.Len(t, got, 2)
	assert.Equal(t, "Amy", got[0].FirstName)

	// Sorting is view only; the file keeps import order.
	res = runCLI(t, "", "list", "-o", "json")
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	assert.Equal(t, "Zoe", decodeContacts(t, res.stdout)[0].FirstName)

	res = runCLI(t, "", "import", filepath.Join(dir, "missing.csv"))
	assert.Equal(t, render.CodeNotFound, res.code)
}

func TestShell(t *testing.T) {
	setupEnv(t)

	input := strings.Join([]string{
		"1", "Jane", "Doe", "bad phone", "(555) 123-4567", "not-an-email", "", "1 Main St",
		"2",
		"4", "(555) 000-0000", "", "", "", "", "",
		"9",
		"3", "doe",
		"8",
	}, "\n") + "\n"

	res := runCLI(t, input)
	require.Equal(t, render.CodeOK, res.code, res.stderr)
	out := res.stdout
	assert.Contains(t, out, "Contact Manager")
	assert.Contains(t, out, "Invalid phone number format. Expected (###) ###-####.")
	assert.Contains(t, out, "Invalid email address.")
	assert.Contains(t, out, "Contact added successfully.")
	assert.Contains(t, out, "Contact not found.")
	assert.Contains(t, out, "Invalid choice. Please try again.")
	assert.Equal(t, 2, strings.Count(out, "(555) 123-4567"), "listed once and found once")
}

func TestShellEndsOnEOF(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "1\nJane\n", "shell")
	assert.Equal(t, render.CodeOK, res.code, res.stderr)

	res = runCLI(t, "", "list")
	assert.Equal(t, "No contacts.\n", res.stdout)
}
