package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/catalog"
)

const lintCatalog = `
org:
  divisions:
    - key: ops
      departments:
        - key: hr
          head: {id: hr-head, role_key: HRHead}
          employees: [{id: recruiter}]
paths:
  - template: /employees
    view_roles: [HRHead, recruiter, admin]
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Clean(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: writeFile(t, lintCatalog), ambient: "SuperAdmin,admin"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok\n", out.String())
}

func TestRun_BuiltIn(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: "default", ambient: "SuperAdmin,admin"}, &out)

	require.NoError(t, err)
}

func TestRun_UnknownRole(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: writeFile(t, lintCatalog), ambient: "SuperAdmin"}, &out)

	assert.ErrorIs(t, err, errFindings)
	assert.Contains(t, out.String(), "error /employees [admin]")
}

func TestRun_StrictWarnings(t *testing.T) {
	path := writeFile(t, lintCatalog+"  - template: /orphan\n")

	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: path, ambient: "admin"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "warning /orphan")

	err = run(context.Background(), options{catalogPath: path, ambient: "admin", strict: true}, &out)
	assert.ErrorIs(t, err, errFindings)
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: writeFile(t, lintCatalog), ambient: "admin", asJSON: true}, &out)
	require.NoError(t, err)

	var findings []catalog.Finding
	require.NoError(t, json.Unmarshal(out.Bytes(), &findings))
	assert.Empty(t, findings)
}

func TestRun_PublishNeedsDatabase(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: writeFile(t, lintCatalog), ambient: "admin", publish: true}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "-database-url")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: filepath.Join(t.TempDir(), "nope.yaml")}, &out)
	assert.Error(t, err)
}
