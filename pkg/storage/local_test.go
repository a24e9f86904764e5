package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndDelete(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), strings.NewReader("fake image bytes"), "user", "avatar.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/user/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	// The client-supplied name must not survive into the stored name.
	assert.NotContains(t, ref, "avatar")

	data, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(base, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalSaveRejectsDisallowedExtension(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), strings.NewReader("#!/bin/sh"), "user", "payload.sh")
	assert.ErrorIs(t, err, ErrDisallowedType)

	_, err = s.Save(context.Background(), strings.NewReader("x"), "user", "noextension")
	assert.ErrorIs(t, err, ErrDisallowedType)
}

func TestLocalDeleteRefusesEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.Delete(context.Background(), "../../etc/passwd"))
	assert.Error(t, s.Delete(context.Background(), "/etc/passwd"))
}

func TestLocalDeleteMissingFileIsNoop(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), "uploads/user/gone.png"))
}
