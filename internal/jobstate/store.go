package jobstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default file locations, overridable via config.
const (
	DefaultStatePath = "generated/job_state.json"
	DefaultSeenPath  = "generated/seen_jobs.json"
)

// LoadResult distinguishes a legitimately empty store from one that could
// not be read. Loading never hard-fails: a corrupt state file degrades to an
// empty store and the next save regenerates it, but callers can still log
// Err and skip destructive follow-ups.
type LoadResult struct {
	State            State
	MigratedFromSeen bool
	Err              error
}

// LoadState reads the state store from path. If the primary file is absent
// but a legacy seen-jobs file exists, that file is migrated into state
// records stamped with now. Otherwise an empty store is returned.
func LoadState(path, seenPath, now string) LoadResult {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		state, perr := decodeState(data)
		if perr != nil {
			return LoadResult{State: State{}, Err: fmt.Errorf("parse state file %s: %w", path, perr)}
		}
		return LoadResult{State: state}
	case !os.IsNotExist(err):
		return LoadResult{State: State{}, Err: fmt.Errorf("read state file %s: %w", path, err)}
	}

	if seenPath != "" {
		if _, serr := os.Stat(seenPath); serr == nil {
			state, merr := migrateSeenJobs(seenPath, now)
			if merr != nil {
				return LoadResult{State: State{}, Err: merr}
			}
			return LoadResult{State: state, MigratedFromSeen: true}
		}
	}

	return LoadResult{State: State{}}
}

// decodeState accepts both the current UID-keyed object format and the
// legacy flat array of records.
func decodeState(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err == nil {
		if state == nil {
			state = State{}
		}
		for uid, record := range state {
			if record == nil {
				delete(state, uid)
			}
		}
		return state, nil
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	state = State{}
	for _, record := range records {
		if record == nil || record.JobUID == "" {
			continue
		}
		state[record.JobUID] = record
	}
	return state, nil
}

// migrateSeenJobs converts the old seen-jobs cache into state records. The
// old file was either a flat list of identity strings, a list of posting
// objects, or (rarely) an object whose keys were the identities.
func migrateSeenJobs(seenPath, now string) (State, error) {
	data, err := os.ReadFile(seenPath)
	if err != nil {
		return nil, fmt.Errorf("read seen-jobs file %s: %w", seenPath, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seen-jobs file %s: %w", seenPath, err)
	}

	var entries []any
	switch v := raw.(type) {
	case []any:
		entries = v
	case map[string]any:
		for key := range v {
			entries = append(entries, key)
		}
	default:
		return State{}, nil
	}

	state := State{}
	for _, entry := range entries {
		switch v := entry.(type) {
		case map[string]any:
			fields := Fields{}
			for key, val := range v {
				if text, ok := val.(string); ok {
					fields[key] = text
				}
			}
			uid, canonical := BuildJobUID(fields)
			record := notifiedRecord(now)
			record.JobUID = uid
			record.Source = fields.First("source", "portal", "origin")
			record.CanonicalURL = canonical
			record.Link = fields.First("link", "url")
			record.Title = fields["title"]
			record.Company = fields["company"]
			record.Location = fields["location"]
			state[uid] = record
		default:
			key := fmt.Sprint(entry)
			uid := LegacyUID(key)
			record := notifiedRecord(now)
			record.JobUID = uid
			record.Source = "legacy"
			record.LegacyKey = key
			state[uid] = record
		}
	}
	return state, nil
}

// SaveState writes the store as pretty-printed, key-sorted JSON. The file is
// written to a temp sibling first and renamed into place so a crash mid-write
// leaves the previous state intact.
func SaveState(state State, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	payload = append(payload, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".job_state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
