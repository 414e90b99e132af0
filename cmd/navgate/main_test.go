package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/catalog"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/platform/config"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

func TestBuildSource(t *testing.T) {
	src, err := buildSource(config.AccessConfig{Source: catalog.SourceDefault}, nil)
	require.NoError(t, err)
	assert.IsType(t, catalog.StaticSource{}, src)

	src, err = buildSource(config.AccessConfig{Source: catalog.SourceFile, CatalogPath: "catalog.yaml"}, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.FileSource{Path: "catalog.yaml"}, src)

	_, err = buildSource(config.AccessConfig{Source: catalog.SourcePostgres}, nil)
	assert.ErrorIs(t, err, catalog.ErrNoSource)

	_, err = buildSource(config.AccessConfig{Source: "etcd"}, nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownSource)
}

func TestBuildAuditLogger_NoDatabase(t *testing.T) {
	l, err := buildAuditLogger(context.Background(), config.AuditConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &audit.SlogLogger{}, l)
}

func TestDevModeIdentity(t *testing.T) {
	id := devModeIdentity([]string{"Root", "SuperAdmin"})
	role := id.User["role"].(map[string]any)
	assert.Equal(t, "Root", role["roleKey"])

	id = devModeIdentity(nil)
	role = id.User["role"].(map[string]any)
	assert.Equal(t, "SuperAdmin", role["roleKey"])
}

func TestReloadOnSignal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  - template: /a\n    view_roles: [x]\n"), 0o600))

	mapper := rolemapper.New(nil)
	cache := permissions.NewCache(nil)
	reloader := catalog.NewReloader(catalog.FileSource{Path: path}, mapper, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		reloadOnSignal(ctx, sig, reloader)
		close(done)
	}()

	sig <- syscall.SIGHUP
	assert.Eventually(t, func() bool { return cache.Paths().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
