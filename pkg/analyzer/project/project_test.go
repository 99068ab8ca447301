package project

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/classcleaner/classcleaner/pkg/models"
	"github.com/classcleaner/classcleaner/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerSrc = `class Player {
    func jump(height: Int) {
    }

    func run() {
        jump(height: 2)
    }
}
`

const gameSrc = `extension Player {
    func rest() {
    }
}

func main() {
    let p = Player()
    p.run()
}
`

func writeFiles(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"Player.swift", "Game.swift", "notes.txt", "Big.swift"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	return dir, paths
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScan_MergesInFileOrder(t *testing.T) {
	_, paths := writeFiles(t, map[string]string{
		"Player.swift": playerSrc,
		"Game.swift":   gameSrc,
	})

	agg := New(WithWorkers(2), WithLogger(quietLogger()))
	defer agg.Close()

	snap, err := agg.Scan(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, paths, snap.Files)
	assert.Empty(t, snap.Errors)

	require.Len(t, snap.Roots, 3)
	assert.Equal(t, "Player", snap.Roots[0].Name)
	assert.Equal(t, models.KindExtension, snap.Roots[1].Kind)
	assert.Equal(t, "main", snap.Roots[2].Name)

	names := make([]string, 0, len(snap.Calls))
	for _, c := range snap.Calls {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"jump", "Player", "run"}, names)

	assert.Same(t, snap, agg.Current())
}

func TestScan_ArenaIdentity(t *testing.T) {
	_, paths := writeFiles(t, map[string]string{
		"Player.swift": playerSrc,
		"Game.swift":   gameSrc,
	})

	snap, err := New(WithLogger(quietLogger())).Scan(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, models.Count(snap.Roots), len(snap.Arena))
	for i, el := range snap.Arena {
		assert.Equal(t, models.ElementID(i), el.ID)
		got, ok := snap.Element(el.ID)
		require.True(t, ok)
		assert.Same(t, el, got)
	}
	_, ok := snap.Element(models.ElementID(len(snap.Arena)))
	assert.False(t, ok)

	player := snap.Roots[0]
	jump := player.Children[0]
	assert.Same(t, player, snap.Parent(jump.ID))
	assert.Same(t, player, snap.Container(jump.ID))
	assert.Nil(t, snap.Parent(player.ID))
	assert.Nil(t, snap.Container(snap.Roots[2].ID))
}

func TestScan_FileErrorsAreCollected(t *testing.T) {
	dir, paths := writeFiles(t, map[string]string{
		"Player.swift": playerSrc,
		"notes.txt":    "not swift",
	})
	missing := filepath.Join(dir, "Missing.swift")
	paths = append(paths, missing)

	snap, err := New(WithLogger(quietLogger())).Scan(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, snap.Roots, 1)
	require.Len(t, snap.Errors, 2)
	assert.Equal(t, missing, snap.Errors[0].Path)
	assert.ErrorIs(t, snap.Errors[0], parser.ErrCouldNotReadFile)
	assert.ErrorIs(t, snap.Errors[1], parser.ErrNotASourceFile)
}

func TestScan_MaxFileSize(t *testing.T) {
	_, paths := writeFiles(t, map[string]string{
		"Player.swift": playerSrc,
		"Big.swift":    "class Big {}\n" + string(make([]byte, 4096)),
	})

	snap, err := New(WithMaxFileSize(1024), WithLogger(quietLogger())).Scan(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, snap.Errors, 1)
	assert.ErrorIs(t, snap.Errors[0], ErrFileTooLarge)
	assert.Len(t, snap.Roots, 1)
}

func TestScan_Idempotent(t *testing.T) {
	_, paths := writeFiles(t, map[string]string{
		"Player.swift": playerSrc,
		"Game.swift":   gameSrc,
	})

	agg := New(WithLogger(quietLogger()))
	first, err := agg.Scan(context.Background(), paths)
	require.NoError(t, err)
	second, err := agg.Scan(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), second.Version)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Calls, second.Calls)
	assert.NotSame(t, first.Roots[0], second.Roots[0], "snapshots never share elements")
	assert.Same(t, second, agg.Current())
}

func TestScan_EmptyInput(t *testing.T) {
	snap, err := New(WithLogger(quietLogger())).Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Roots)
	assert.Empty(t, snap.Arena)
	assert.Empty(t, snap.Calls)
}

func TestScan_CancelledContext(t *testing.T) {
	_, paths := writeFiles(t, map[string]string{"Player.swift": playerSrc})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := New(WithLogger(quietLogger()))
	snap, err := agg.Scan(ctx, paths)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, agg.Current())
}

func TestStore_BeginCancelsPrevious(t *testing.T) {
	store := &Store{}

	firstCtx, v1, done1 := store.begin(context.Background())
	secondCtx, v2, done2 := store.begin(context.Background())
	defer done2()

	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(2), v2)
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	assert.NoError(t, secondCtx.Err())

	done1()
	assert.NoError(t, secondCtx.Err(), "finishing a stale scan leaves the newer one running")
}

func TestStore_PublishKeepsNewest(t *testing.T) {
	store := &Store{}
	newer := &Snapshot{Version: 2}
	older := &Snapshot{Version: 1}

	assert.True(t, store.publish(newer))
	assert.False(t, store.publish(older))
	assert.Same(t, newer, store.Current())
	assert.True(t, store.publish(&Snapshot{Version: 3}))
}

func TestFingerprint_IgnoresIDsButNotStructure(t *testing.T) {
	build := func(id models.ElementID, child string) []*models.Element {
		root := &models.Element{ID: id, Kind: models.KindType, Name: "A"}
		root.AddChild(&models.Element{ID: id + 1, Kind: models.KindMethod, Name: child, Parameters: []string{}})
		return []*models.Element{root}
	}
	calls := []models.CallSite{
		{Name: "f", Parameters: []string{}},
		{Name: "g"},
	}
	reversed := []models.CallSite{calls[1], calls[0]}

	assert.Equal(t, Fingerprint(build(0, "f"), calls), Fingerprint(build(10, "f"), reversed))
	assert.NotEqual(t, Fingerprint(build(0, "f"), calls), Fingerprint(build(0, "g"), calls))
	assert.NotEqual(t,
		Fingerprint(nil, []models.CallSite{{Name: "g"}}),
		Fingerprint(nil, []models.CallSite{{Name: "g", Parameters: []string{}}}),
	)
}
