package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	quadtree "github.com/rob05c/cquadtree"
	"github.com/stretchr/testify/require"
)

func TestBenchRun(t *testing.T) {
	re := require.New(t)
	for _, lockfree := range []bool{true, false} {
		cfg := NewConfig()
		cfg.Points = 20000
		cfg.Threads = 4
		cfg.LockFree = lockfree
		// a lock-based querier holds the root read lock for a whole query and
		// starves the inserters
		if lockfree {
			cfg.QueryThreads = 1
		}
		cfg.Queries = 10
		cfg.PNG = filepath.Join(t.TempDir(), "tree.png")

		var out bytes.Buffer
		re.NoError(newBench(cfg, &out).run(context.Background()))
		re.Contains(out.String(), "inserted 20000 in")
		re.Contains(out.String(), "via 10 queries")
		if lockfree {
			re.Contains(out.String(), "queries during insert:")
		} else {
			re.NotContains(out.String(), "queries during insert:")
		}

		f, err := os.Open(cfg.PNG)
		re.NoError(err)
		img, err := png.Decode(f)
		f.Close()
		re.NoError(err)
		re.Equal(renderSize, img.Bounds().Dx())
	}
}

func TestBenchCancelled(t *testing.T) {
	re := require.New(t)
	cfg := NewConfig()
	cfg.Points = 1000
	cfg.Threads = 2
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	re.ErrorIs(newBench(cfg, &out).run(ctx), context.Canceled)
	re.Contains(out.String(), "inserted 0 in")
}

func TestRenderDrawsLeafEdges(t *testing.T) {
	re := require.New(t)
	qt := quadtree.NewLockFree(boundary, 1)
	re.True(qt.Insert(quadtree.Point{X: 75, Y: 75}))
	re.True(qt.Insert(quadtree.Point{X: 125, Y: 125}))

	img := render(qt, qt.Boundary(), nil)
	// the root is split at its center, so the middle column is an edge
	mid := (renderSize - 1) / 2
	r, _, _, _ := img.At(mid, renderSize/4).RGBA()
	re.Zero(r)
	r, _, _, _ = img.At(renderSize/4, renderSize/4).RGBA()
	re.NotZero(r)
}
