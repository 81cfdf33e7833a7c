package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/posekit/internal/pose"
)

func TestImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "a.PNG")
	writeImage(t, dir, "notes.txt")
	writeImage(t, dir, ".hidden.png")

	got, err := Images(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.png")}, got)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "shot.json"), OutputPath(filepath.Join("in", "shot.jpg"), "out"))
	assert.Equal(t, filepath.Join("in", "shot.json"), OutputPath(filepath.Join("in", "shot.jpg"), ""))
}

func TestBatchExtractsEveryImage(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for _, name := range []string{"one.png", "two.png", "three.png"} {
		writeImage(t, in, name)
	}

	e := newExtractor(t, &fakeDetector{fallback: standing()}, false)
	items, err := e.Batch(context.Background(), in, BatchOptions{OutDir: out, Workers: 2})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, it := range items {
		require.NoError(t, it.Err)
		require.NotNil(t, it.Result)
		assert.FileExists(t, it.Result.JSONPath)
		assert.FileExists(t, it.Result.SkeletonPath)
		assert.Equal(t, out, filepath.Dir(it.Result.JSONPath))
	}
	assert.Equal(t, filepath.Join(in, "one.png"), items[0].Image)
}

func TestBatchStopsOnFirstFailure(t *testing.T) {
	in := t.TempDir()
	writeImage(t, in, "good.png")
	writeImage(t, in, "blank.png")

	det := &fakeDetector{
		byName:   map[string][]pose.Landmark{"blank.png": nil},
		fallback: standing(),
	}
	e := newExtractor(t, det, false)

	_, err := e.Batch(context.Background(), in, BatchOptions{Workers: 1})
	require.ErrorIs(t, err, ErrNoPose)
}

func TestBatchKeepGoingRecordsFailures(t *testing.T) {
	in := t.TempDir()
	writeImage(t, in, "good.png")
	writeImage(t, in, "blank.png")

	det := &fakeDetector{
		byName:   map[string][]pose.Landmark{"blank.png": nil},
		fallback: standing(),
	}
	e := newExtractor(t, det, false)

	items, err := e.Batch(context.Background(), in, BatchOptions{Workers: 4, KeepGoing: true})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.ErrorIs(t, items[0].Err, ErrNoPose)
	assert.Nil(t, items[0].Result)
	assert.NoError(t, items[1].Err)
	assert.FileExists(t, filepath.Join(in, "good.json"))
}

func TestBatchRejectsOutputCollisions(t *testing.T) {
	in := t.TempDir()
	writeImage(t, in, "shot.png")
	writeImage(t, in, "shot.jpg")

	e := newExtractor(t, &fakeDetector{fallback: standing()}, false)
	_, err := e.Batch(context.Background(), in, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shot.json")
}

func TestBatchHonorsCancellation(t *testing.T) {
	in := t.TempDir()
	writeImage(t, in, "one.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newExtractor(t, &fakeDetector{fallback: standing()}, false)
	_, err := e.Batch(ctx, in, BatchOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(in, "one.json"))
}
