package core

import (
	"encoding/binary"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// Entry is one searchable file record. Entries are immutable once the store
// is built; NameLower and PathLower are folded once so searches never fold.
type Entry struct {
	ID        types.EntryID
	Path      string
	Name      string
	NameLower string
	PathLower string
	Size      uint64
	Modified  time.Time
}

// contains reports whether the already-lowercased query occurs in the
// entry's name or path.
func (e *Entry) contains(queryLower string) bool {
	return strings.Contains(e.NameLower, queryLower) || strings.Contains(e.PathLower, queryLower)
}

// EntryStore is the flat, ID-indexed list of entries. Position == ID.
// There is no mutation API; a new generation means a new store.
type EntryStore struct {
	entries []Entry
}

// NewEntryStore assigns dense IDs to records in the order given.
// A record without a name gets the final path component.
func NewEntryStore(records []types.FileRecord) *EntryStore {
	entries := make([]Entry, len(records))
	for i, rec := range records {
		name := rec.Name
		if name == "" {
			name = filepath.Base(rec.Path)
		}
		entries[i] = Entry{
			ID:        types.EntryID(i),
			Path:      rec.Path,
			Name:      name,
			NameLower: strings.ToLower(name),
			PathLower: strings.ToLower(rec.Path),
			Size:      rec.Size,
			Modified:  rec.Modified,
		}
	}
	return &EntryStore{entries: entries}
}

// Len returns the number of entries. A nil store is empty.
func (s *EntryStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get resolves an ID. Out-of-range IDs return false instead of panicking.
func (s *EntryStore) Get(id types.EntryID) (Entry, bool) {
	if s == nil || int(id) >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[id], true
}

// All returns the backing slice. Callers must treat it as read-only.
func (s *EntryStore) All() []Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Records converts the store back to scanner records, in ID order.
func (s *EntryStore) Records() []types.FileRecord {
	if s == nil {
		return nil
	}
	records := make([]types.FileRecord, len(s.entries))
	for i := range s.entries {
		e := &s.entries[i]
		records[i] = types.FileRecord{
			Path:     e.Path,
			Name:     e.Name,
			Size:     e.Size,
			Modified: e.Modified,
		}
	}
	return records
}

// Fingerprint hashes the store contents in ID order. Two stores with the
// same fingerprint assign the same IDs to the same files, so an index built
// over one is valid for the other.
func (s *EntryStore) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for i := range s.All() {
		e := &s.entries[i]
		_, _ = d.WriteString(e.Path)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(e.Name)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], e.Size)
		_, _ = d.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Modified.UnixNano()))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Resolve maps scored IDs to entries, keeping at most limit hits
// (limit <= 0 keeps all). IDs that do not resolve are skipped.
func (s *EntryStore) Resolve(results []types.ScoredEntry, limit int) []Hit {
	n := len(results)
	if limit > 0 && limit < n {
		n = limit
	}
	hits := make([]Hit, 0, n)
	for _, r := range results {
		if len(hits) == n {
			break
		}
		e, ok := s.Get(r.ID)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Entry: e, Score: r.Score})
	}
	return hits
}
