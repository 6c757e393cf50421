// Package snapshot persists an index generation to a single file and loads
// it back. The store and both indexes are written together with the
// fingerprint of the store, so a file can never pair indexes with the
// wrong entries.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
)

// Options control how a snapshot is written.
type Options struct {
	Compression Compression
}

// DefaultOptions compresses with zstd.
func DefaultOptions() Options {
	return Options{Compression: CompressionZstd}
}

// Encode writes idx to w.
func Encode(w io.Writer, idx *core.Index, opts Options) error {
	if idx == nil {
		return errors.New("nil index")
	}
	opts.Compression = normalize(opts.Compression)

	buildOpts := idx.Options()
	doc := document{
		Fingerprint:     idx.Fingerprint(),
		LastUpdated:     idx.LastUpdated(),
		MinGramLen:      idx.Ngrams().MinGramLen(),
		MaxEditDistance: buildOpts.MaxEditDistance,
		DeletionIndex:   idx.Deletions() != nil,
		IndexedPaths:    buildOpts.IndexedPaths,
		Entries:         encodeEntries(idx.Store().Records()),
		Grams:           idx.Ngrams().ExportGrams(),
		Variants:        idx.Deletions().ExportVariants(),
	}

	raw, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	payload, used, err := compress(raw, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}

	h := header{
		Version:     Version,
		Compression: used,
		RawLen:      uint64(len(raw)),
		Checksum:    xxhash.Sum64(raw),
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func normalize(c Compression) Compression {
	if c > CompressionZstd {
		return CompressionZstd
	}
	return c
}

// Decode reads a snapshot written by Encode and reassembles the index. The
// payload checksum and the store fingerprint are both verified.
func Decode(r io.Reader) (*core.Index, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(io.LimitReader(r, maxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	raw, err := decompress(payload, h.Compression, h.RawLen)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	if sum := xxhash.Sum64(raw); sum != h.Checksum {
		return nil, fmt.Errorf("%w: got %016x, want %016x", ErrChecksum, sum, h.Checksum)
	}

	var doc document
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return assemble(&doc)
}

func assemble(doc *document) (*core.Index, error) {
	store := core.NewEntryStore(decodeEntries(doc.Entries))

	ngrams, err := core.RestoreNgramIndex(doc.MinGramLen, doc.Grams, store.Len())
	if err != nil {
		return nil, fmt.Errorf("n-gram index: %w", err)
	}

	var deletions *core.DeletionIndex
	if doc.DeletionIndex {
		deletions, err = core.RestoreDeletionIndex(doc.MaxEditDistance, doc.Variants, store.Len())
		if err != nil {
			return nil, fmt.Errorf("deletion index: %w", err)
		}
	}

	opts := core.BuildOptions{
		MinGramLen:      ngrams.MinGramLen(),
		MaxEditDistance: doc.MaxEditDistance,
		DeletionIndex:   doc.DeletionIndex,
		IndexedPaths:    doc.IndexedPaths,
	}
	return core.Assemble(store, ngrams, deletions, opts, doc.Fingerprint, doc.LastUpdated)
}

// Save writes idx to path atomically: the snapshot goes to a temp file in
// the same directory and is renamed over path only once complete.
func Save(path string, idx *core.Index, opts Options) error {
	start := time.Now()
	if err := writeAtomic(path, func(w io.Writer) error {
		return Encode(w, idx, opts)
	}); err != nil {
		return lserrors.NewSnapshotError("save", path, err)
	}
	debug.LogSnapshot("saved %d entries to %s (%s) in %v\n",
		idx.Len(), path, normalize(opts.Compression), time.Since(start))
	return nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()
	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := write(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Load reads the snapshot at path. Every failure is returned as a
// recoverable SnapshotError: callers treat it as "no index" and rebuild. A
// missing file also matches errors.ErrNoIndex.
func Load(path string) (*core.Index, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %v", lserrors.ErrNoIndex, err)
		}
		return nil, lserrors.NewSnapshotError("load", path, err)
	}
	defer f.Close()

	idx, err := Decode(bufio.NewReaderSize(f, 256*1024))
	if err != nil {
		debug.LogSnapshot("discarding unreadable snapshot %s: %v\n", path, err)
		return nil, lserrors.NewSnapshotError("load", path, err)
	}
	debug.LogSnapshot("loaded %d entries from %s in %v\n", idx.Len(), path, time.Since(start))
	return idx, nil
}
