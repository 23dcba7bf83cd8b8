package files

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediamerge/internal/shared/testutil"
)

var tableExtensions = []string{".xlsx", ".xlsm", ".csv"}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDiscovery_Accepts(t *testing.T) {
	d := NewDiscovery(tableExtensions)

	tests := []struct {
		name string
		want bool
	}{
		{"google.xlsx", true},
		{"META.CSV", true},
		{"macro.xlsm", true},
		{"legacy.xls", false},
		{"notes.txt", false},
		{"~$google.xlsx", false},
		{".hidden.csv", false},
		{"/some/dir/tiktok.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Accepts(tt.name))
		})
	}
}

func TestDiscovery_FindTables(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tiktok.csv", "google.xlsx", "~$google.xlsx", "readme.md", "Bing.csv"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	files, err := NewDiscovery(tableExtensions).FindTables(dir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
	}
	assert.Equal(t, []string{"Bing.csv", "google.xlsx", "tiktok.csv"}, names)
}

func TestDiscovery_FindTables_MissingDir(t *testing.T) {
	_, err := NewDiscovery(tableExtensions).FindTables(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDiscovery_Resolve(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.csv")
	b := touch(t, dir, "b.csv")
	bench := touch(t, dir, "benchmarks.xlsx")
	other := t.TempDir()
	single := touch(t, other, "single.csv")

	d := NewDiscovery(tableExtensions)

	paths, err := d.Resolve([]string{single, dir}, bench)
	require.NoError(t, err)
	assert.Equal(t, []string{single, a, b}, paths)

	_, err = d.Resolve([]string{filepath.Join(dir, "nope.csv")}, "")
	assert.Error(t, err)
}

func TestDiscovery_ResolveExcludesOutput(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.csv")
	bench := touch(t, dir, "benchmarks.csv")
	out := touch(t, dir, "merged.csv")

	d := NewDiscovery(tableExtensions)

	tests := []struct {
		name    string
		inputs  []string
		exclude []string
		want    []string
	}{
		{"directory", []string{dir}, []string{bench, out}, []string{a}},
		{"explicit files", []string{a, out}, []string{bench, out}, []string{a}},
		{"relative output", []string{dir}, []string{relativeTo(t, out)}, []string{a, bench}},
		{"nothing excluded", []string{dir}, nil, []string{a, bench, out}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := d.Resolve(tt.inputs, tt.exclude...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths)
		})
	}
}

func relativeTo(t *testing.T, path string) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)
	return rel
}

func TestDiscovery_Watch(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	d := NewDiscovery(tableExtensions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, dir, 50*time.Millisecond, logger, func(context.Context) {
			runs.Add(1)
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	touch(t, dir, "ignored.txt")
	touch(t, dir, "a.csv")
	touch(t, dir, "b.csv")

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// A burst collapses into a single run.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDiscovery_WatchIgnoresOwnOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")
	logger, handler := testutil.NewTestLogger(t)
	d := NewDiscovery(tableExtensions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, dir, 50*time.Millisecond, logger, func(context.Context) {
			runs.Add(1)
			assert.NoError(t, os.WriteFile(out, []byte("Channel\n"), 0o644))
		}, out)
	}()

	require.Eventually(t, func() bool {
		return handler.ContainsMessage("watching for input changes")
	}, 2*time.Second, 10*time.Millisecond)

	touch(t, dir, "a.csv")
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Writing the output must not schedule another run.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
