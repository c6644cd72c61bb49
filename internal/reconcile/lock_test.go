package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := AcquireLock(path, 2*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, lock.RunID)

	// A second acquisition fails while the lock is live.
	_, err = AcquireLock(path, 2*time.Hour)
	assert.ErrorIs(t, err, ErrLocked)

	lock.Release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// After release the lock is free again.
	lock2, err := AcquireLock(path, 2*time.Hour)
	require.NoError(t, err)
	lock2.Release()
}

func TestAcquireLockReclaimsStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	// A lock from a crashed run, started well past its TTL.
	payload := `{"run_id":"dead","pid":1,"started_at":"2020-01-01T00:00:00Z","ttl_min":120}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	lock, err := AcquireLock(path, 2*time.Hour)
	require.NoError(t, err)
	defer lock.Release()
	assert.NotEqual(t, "dead", lock.RunID)
}

func TestAcquireLockReclaimsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	lock, err := AcquireLock(path, 2*time.Hour)
	require.NoError(t, err)
	lock.Release()
}
