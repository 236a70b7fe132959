package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	cw, err := New(t.TempDir(), func(context.Context, []string) {}, nil)
	require.NoError(t, err)

	require.NoError(t, cw.Start(context.Background()))
	// Second Start is a no-op.
	require.NoError(t, cw.Start(context.Background()))
	cw.Stop()
	// Second Stop is a no-op.
	cw.Stop()
}

func TestWatcher_RegeneratesOnContractChange(t *testing.T) {
	dir := t.TempDir()

	var regens atomic.Int32
	cw, err := New(dir, func(_ context.Context, changed []string) {
		regens.Add(1)
	}, nil)
	require.NoError(t, err)
	cw.SetDebounce(50 * time.Millisecond)

	require.NoError(t, cw.Start(context.Background()))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "privacy.yaml"), []byte("rules: []\n"), 0644))
	// Non-contract files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	deadline := time.After(3 * time.Second)
	for regens.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no regeneration within deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	stats := cw.GetStats()
	require.NotZero(t, stats.Regenerations)
	require.Equal(t, 0, stats.Errors)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()

	var regens atomic.Int32
	cw, err := New(dir, func(context.Context, []string) { regens.Add(1) }, nil)
	require.NoError(t, err)
	cw.SetDebounce(200 * time.Millisecond)

	require.NoError(t, cw.Start(context.Background()))
	defer cw.Stop()

	path := filepath.Join(dir, "burst.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	if got := regens.Load(); got != 1 {
		t.Fatalf("expected one debounced regeneration, got %d", got)
	}
}
