package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"bewerbungsagent/internal/jobstate"
)

// ErrLocked is returned when another live run holds the lock.
var ErrLocked = errors.New("run lock held by another process")

// Lock is the advisory file lock around the reconciliation pipeline. It only
// guards against two invocations on the same machine; this is a single-user
// tool, not a distributed system.
type Lock struct {
	path  string
	RunID string
}

type lockPayload struct {
	RunID     string `json:"run_id"`
	PID       int    `json:"pid"`
	StartedAt string `json:"started_at"`
	TTLMin    int    `json:"ttl_min"`
}

// AcquireLock takes the run lock at path, reclaiming a stale lock whose TTL
// has passed (a crashed run never removes its lock file). Returns ErrLocked
// while a live run holds it.
func AcquireLock(path string, ttl time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if !lockIsStale(path, ttl) {
			return nil, ErrLocked
		}
		log.Info().Str("path", path).Msg("removing stale run lock")
		os.Remove(path)
	}

	payload := lockPayload{
		RunID:     uuid.New().String(),
		PID:       os.Getpid(),
		StartedAt: jobstate.NowISO(),
		TTLMin:    int(ttl / time.Minute),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("create run lock: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write run lock: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close run lock: %w", err)
	}

	return &Lock{path: path, RunID: payload.RunID}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("path", l.path).Err(err).Msg("failed to release run lock")
	}
}

// lockIsStale treats an unreadable payload or timestamp as stale: a garbage
// lock file should never block runs forever.
func lockIsStale(path string, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	var payload lockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return true
	}
	started, ok := jobstate.ParseTS(payload.StartedAt)
	if !ok {
		return true
	}
	return time.Since(started) > ttl
}
