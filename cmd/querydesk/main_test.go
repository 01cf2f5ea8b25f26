package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk-api/internal/utils"
)

func setTestEnv(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")
	t.Setenv("SECRET_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out)
	app.SetArgs(args)
	app.SetOut(&out)
	app.SetErr(&out)
	err := app.Execute()
	return out.String(), err
}

func lineContaining(t *testing.T, out string, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("no line contains %q in:\n%s", needle, out)
	return ""
}

func cells(line string) []string {
	var out []string
	for _, cell := range strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|") {
		out = append(out, strings.TrimSpace(cell))
	}
	return out
}

func TestSplitPrintsClassification(t *testing.T) {
	setTestEnv(t)

	out, err := run(t, "-- header\n;\nINSERT INTO orders VALUES (1);\nSELECT 'a;b' FROM dual;\nVACUUM;", "split")
	require.NoError(t, err)

	assert.Equal(t, []string{"#", "VERB", "NAME", "ACTION", "STATEMENT"}, cells(lineContaining(t, out, "VERB")))
	assert.Equal(t, []string{"1", "-", "-", "-", "-- header"}, cells(lineContaining(t, out, "-- header")))
	assert.Equal(t, []string{"2", "INSERT", "orders", "insert", "INSERT INTO orders VALUES (1)"}, cells(lineContaining(t, out, "INTO orders")))
	assert.Equal(t, []string{"3", "SELECT", "dual", "select", "SELECT 'a;b' FROM dual"}, cells(lineContaining(t, out, "'a;b'")))
	assert.Equal(t, []string{"4", "VACUUM", "?", "?", "VACUUM"}, cells(lineContaining(t, out, "| VACUUM")))
}

func TestSplitSkipComments(t *testing.T) {
	setTestEnv(t)

	out, err := run(t, "-- only a comment\n;\nDELETE FROM t WHERE id = 1;", "split", "--skip-comments")
	require.NoError(t, err)
	assert.NotContains(t, out, "only a comment")
	assert.Contains(t, out, "DELETE")
}

func TestTokenMintsValidToken(t *testing.T) {
	setTestEnv(t)

	out, err := run(t, "", "token", "--user", "alice", "--duration", "1m")
	require.NoError(t, err)

	userID, err := utils.NewJWTService("cli-test-secret", time.Minute).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", *userID)
}

func TestTokenRequiresUser(t *testing.T) {
	setTestEnv(t)

	_, err := run(t, "", "token")
	assert.EqualError(t, err, "--user is required")
}
