package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/playgcn/core"
)

const testdata = "../../dataset/testdata/playlists.csv"

func TestParseFlagsOverrides(t *testing.T) {
	f, err := parseFlags([]string{"-data", "x.csv", "-k", "5", "-epochs", "7", "-playlist-id", "p2"})
	require.NoError(t, err)
	assert.Equal(t, "x.csv", f.data)
	assert.Equal(t, 5, f.k)
	assert.Equal(t, 7, f.epochs)
	assert.Equal(t, "p2", f.playlistID)
	assert.True(t, f.showSummary)

	_, err = parseFlags([]string{"-nope"})
	assert.Error(t, err)
}

func TestRunPrintsTopK(t *testing.T) {
	var out bytes.Buffer
	textfile := filepath.Join(t.TempDir(), "playgcn.prom")
	err := run(context.Background(), []string{
		"-data", testdata, "-k", "2", "-epochs", "3", "-playlist", "1",
		"-metrics-textfile", textfile, "-log-level", "disabled",
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "playlists=3 tracks=6 edges=9 epochs=3")
	assert.True(t, strings.HasPrefix(lines[1], " 1. "))

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "playgcn_train_epochs_total 3")
}

func TestRunUnknownPlaylist(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-data", testdata, "-epochs", "1", "-playlist-id", "missing", "-summary=false", "-log-level", "disabled",
	}, &out)
	assert.True(t, core.IsNotFound(err))
	assert.Empty(t, out.String())
}

func TestRunRequiresData(t *testing.T) {
	t.Setenv("PLAYGCN_DATA_PATH", "")
	err := run(context.Background(), []string{"-log-level", "disabled"}, &bytes.Buffer{})
	assert.Error(t, err)
}
