package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptsmgr/scriptsmgr/auth"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf("auth:\n  admin_password: pw\n  jwt_secret: cli-secret\n  data_dir: %s\n", dir)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestSaltAndHash(t *testing.T) {
	path, dir := writeConfig(t)

	salt, err := run(t, "-c", path, "salt")
	require.NoError(t, err)
	assert.Len(t, salt, 64)
	persisted, err := os.ReadFile(filepath.Join(dir, auth.SaltFileName))
	require.NoError(t, err)
	assert.Equal(t, salt, strings.TrimSpace(string(persisted)))

	hash, err := run(t, "-c", path, "hash", "pw")
	require.NoError(t, err)
	assert.Equal(t, auth.DeriveHash("pw", salt), hash)

	_, err = run(t, "-c", path, "hash")
	assert.Error(t, err)
}

func TestTokenAndVerify(t *testing.T) {
	path, _ := writeConfig(t)

	token, err := run(t, "-c", path, "token")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out, err := run(t, "-c", path, "verify", token)
	require.NoError(t, err)
	assert.Equal(t, "token is valid", out)

	_, err = run(t, "-c", path, "verify", token+"x")
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "salt")
	assert.Error(t, err)
}
