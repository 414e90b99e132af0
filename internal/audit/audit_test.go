package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/platform/telemetry"
)

func TestSlogLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewSlogLogger(telemetry.NewLogger("info", "json", &buf))

	logger.Log(context.Background(), audit.Event{
		UserID: "user-123",
		Action: audit.ActionAccessDenied,
		Path:   "/dashboard/management/products",
		Metadata: map[string]any{
			audit.MetadataKind: "act",
		},
		Source: "api",
	})
	require.NoError(t, logger.Close())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "audit event", entry["msg"])
	group, ok := entry["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access.denied", group["action"])
	assert.Equal(t, "user-123", group["user_id"])
	assert.Equal(t, "/dashboard/management/products", group["path"])
	meta, ok := group["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "act", meta["kind"])
}

func TestNopLogger(t *testing.T) {
	var l audit.Logger = audit.NopLogger{}
	l.Log(context.Background(), audit.Event{Action: audit.ActionCatalogReloaded})
	assert.NoError(t, l.Close())
}
