package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encodingman/encodingman/pkg/config"
	"github.com/encodingman/encodingman/pkg/errors"
)

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	return path
}

func TestOpen_SystemDefault(t *testing.T) {
	path := tempFile(t)

	for _, app := range []string{"", config.SystemDefaultApp} {
		var opened string
		l := New(app).WithOpener(func(p string) error {
			opened = p
			return nil
		})
		assert.True(t, l.SystemDefault())
		require.NoError(t, l.Open(context.Background(), path))
		assert.Equal(t, path, opened)
	}
}

func TestOpen_SystemDefaultFailure(t *testing.T) {
	l := New(config.SystemDefaultApp).WithOpener(func(string) error {
		return fmt.Errorf("no handler")
	})

	err := l.Open(context.Background(), tempFile(t))
	require.Error(t, err)
	assert.Equal(t, errors.CodeLaunchFailed, errors.CodeOf(err))
}

func TestOpen_ConfiguredApp(t *testing.T) {
	path := tempFile(t)
	app := filepath.Join(t.TempDir(), "viewer")
	require.NoError(t, os.WriteFile(app, []byte("#!/bin/sh\n"), 0o755))

	var gotApp, gotPath string
	l := New(app)
	l.start = func(_ context.Context, a, p string) error {
		gotApp, gotPath = a, p
		return nil
	}

	require.NoError(t, l.Open(context.Background(), path))
	assert.Equal(t, app, gotApp)
	assert.Equal(t, path, gotPath)
}

func TestOpen_MissingApp(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "no-such-viewer"))
	l.start = func(context.Context, string, string) error {
		t.Fatal("must not start a missing application")
		return nil
	}

	err := l.Open(context.Background(), tempFile(t))
	assert.True(t, errors.HasCode(err, errors.CodeLaunchFailed))
}

func TestOpen_MissingFile(t *testing.T) {
	l := New(config.SystemDefaultApp).WithOpener(func(string) error { return nil })
	err := l.Open(context.Background(), filepath.Join(t.TempDir(), "gone.csv"))
	assert.True(t, errors.HasCode(err, errors.CodeLaunchFailed))
}
