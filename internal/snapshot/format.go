package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/standardbeagle/lightspeed/internal/types"
)

// Format identifiers.
const (
	// Version is the current snapshot format version.
	Version uint8 = 1

	headerSize = 32
)

// Magic identifies a lightspeed snapshot file.
var Magic = [8]byte{'L', 'S', 'I', 'D', 'X', 0x00, 0x01, 0x00}

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidVersion  = errors.New("unsupported snapshot version")
	ErrChecksum        = errors.New("payload checksum mismatch")
	ErrTruncated       = errors.New("snapshot truncated")
	ErrBadCompression  = errors.New("unknown compression")
	ErrPayloadTooLarge = errors.New("payload length exceeds limit")
)

// maxPayloadSize caps the declared uncompressed length so a corrupt header
// cannot trigger an enormous allocation.
const maxPayloadSize = 4 << 30

// Compression selects how the payload is stored.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a config name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("%w %q", ErrBadCompression, name)
}

// header is the fixed 32-byte prefix:
//
//	[0:8]   magic
//	[8]     version
//	[9]     compression
//	[10:16] reserved
//	[16:24] uncompressed payload length, little endian
//	[24:32] xxhash64 of the uncompressed payload, little endian
type header struct {
	Version     uint8
	Compression Compression
	RawLen      uint64
	Checksum    uint64
}

func (h header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], Magic[:])
	buf[8] = h.Version
	buf[9] = uint8(h.Compression)
	binary.LittleEndian.PutUint64(buf[16:24], h.RawLen)
	binary.LittleEndian.PutUint64(buf[24:32], h.Checksum)
	return buf
}

func readHeader(r io.Reader) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return header{}, ErrTruncated
		}
		return header{}, err
	}
	if [8]byte(buf[0:8]) != Magic {
		return header{}, ErrInvalidMagic
	}
	h := header{
		Version:     buf[8],
		Compression: Compression(buf[9]),
		RawLen:      binary.LittleEndian.Uint64(buf[16:24]),
		Checksum:    binary.LittleEndian.Uint64(buf[24:32]),
	}
	if h.Version != Version {
		return header{}, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	if h.Compression > CompressionZstd {
		return header{}, fmt.Errorf("%w: %d", ErrBadCompression, h.Compression)
	}
	if h.RawLen > maxPayloadSize {
		return header{}, fmt.Errorf("%w: %d", ErrPayloadTooLarge, h.RawLen)
	}
	return h, nil
}

// document is the JSON payload. Posting lists are ascending entry IDs.
type document struct {
	Fingerprint     uint64              `json:"fingerprint"`
	LastUpdated     time.Time           `json:"last_updated"`
	MinGramLen      int                 `json:"min_gram_len"`
	MaxEditDistance int                 `json:"max_edit_distance"`
	DeletionIndex   bool                `json:"deletion_index"`
	IndexedPaths    []string            `json:"indexed_paths,omitempty"`
	Entries         []entryRecord       `json:"entries"`
	Grams           map[string][]uint32 `json:"grams"`
	Variants        map[string][]uint32 `json:"variants,omitempty"`
}

// entryRecord is a FileRecord on the wire. JSON strings cannot carry
// arbitrary bytes, and file names need not be UTF-8, so a name or path that
// is not valid UTF-8 goes in the *_bytes field (base64) instead.
type entryRecord struct {
	Path      string    `json:"path,omitempty"`
	PathBytes []byte    `json:"path_bytes,omitempty"`
	Name      string    `json:"name,omitempty"`
	NameBytes []byte    `json:"name_bytes,omitempty"`
	Size      uint64    `json:"size"`
	Modified  time.Time `json:"modified"`
}

func encodeEntries(records []types.FileRecord) []entryRecord {
	out := make([]entryRecord, len(records))
	for i, rec := range records {
		out[i] = entryRecord{Size: rec.Size, Modified: rec.Modified}
		out[i].Path, out[i].PathBytes = splitBytes(rec.Path)
		out[i].Name, out[i].NameBytes = splitBytes(rec.Name)
	}
	return out
}

func decodeEntries(wire []entryRecord) []types.FileRecord {
	out := make([]types.FileRecord, len(wire))
	for i, rec := range wire {
		out[i] = types.FileRecord{
			Path:     joinBytes(rec.Path, rec.PathBytes),
			Name:     joinBytes(rec.Name, rec.NameBytes),
			Size:     rec.Size,
			Modified: rec.Modified,
		}
	}
	return out
}

func splitBytes(s string) (string, []byte) {
	if utf8.ValidString(s) {
		return s, nil
	}
	return "", []byte(s)
}

func joinBytes(s string, b []byte) string {
	if b != nil {
		return string(b)
	}
	return s
}
