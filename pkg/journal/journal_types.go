// Package journal records merge sessions to disk and replays them.
//
// A journal is a sequence of framed records:
//
//	[Seq:8][Kind:1][Len:4][snappy(JSON):Len][CRC32:4]
//
// Seq is the record's position in the file starting at 1. The checksum
// covers the compressed payload. Every session begins with a header record
// followed by one step record per progressing engine step.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/metrics"
)

// frameHeaderSize is Seq + Kind + Len.
const frameHeaderSize = 8 + 1 + 4

const checksumSize = 4

var (
	// ErrChecksumMismatch is returned when a record's payload does not match
	// its stored checksum.
	ErrChecksumMismatch = errors.New("journal checksum mismatch")
	// ErrTraceMismatch is returned by Verify when a replayed session
	// diverges from the recorded one.
	ErrTraceMismatch = errors.New("journal trace mismatch")
	// ErrCorrupt is returned for structurally invalid journals: truncated
	// frames, out-of-order sequence numbers, steps without a header.
	ErrCorrupt = errors.New("journal corrupt")
)

// Kind identifies a record payload.
type Kind uint8

const (
	KindHeader Kind = 1
	KindStep   Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindStep:
		return "step"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header opens a session.
type Header struct {
	Session   string       `json:"session"`
	Config    merge.Config `json:"config"`
	Generated bool         `json:"generated"`
	Streams   [][]int      `json:"streams"`
	StartedAt time.Time    `json:"started_at"`
}

// Record is one decoded frame. Data is the uncompressed payload.
type Record struct {
	Seq  uint64
	Kind Kind
	Data []byte
}

// Session is a header with the steps recorded under it.
type Session struct {
	Header Header
	Steps  []merge.StepRecord
}

// Stats holds compression statistics for a Writer.
type Stats struct {
	Records           uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
}

// CompressionRatio returns the fraction of bytes saved by compression.
func (s Stats) CompressionRatio() float64 {
	if s.BytesUncompressed == 0 {
		return 0
	}
	return 1.0 - float64(s.BytesCompressed)/float64(s.BytesUncompressed)
}

// Writer appends sessions to a journal file. It implements merge.Observer
// so it can be attached to an engine with merge.WithObserver.
type Writer struct {
	file   *os.File
	writer *bufio.Writer
	path   string
	seq    uint64
	mu     sync.Mutex

	// first write error; later records are dropped
	err error

	stats   Stats
	logger  logging.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(logger logging.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetrics records journal writes in the given registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(w *Writer) {
		w.metrics = r
	}
}

// WithClock overrides the clock used for session start times.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// MismatchError describes the first divergence found by Verify.
type MismatchError struct {
	Session string
	Seq     int // step sequence within the session, 0 for header problems
	Reason  string
}

func (e *MismatchError) Error() string {
	if e.Seq == 0 {
		return fmt.Sprintf("session %s: %s", e.Session, e.Reason)
	}
	return fmt.Sprintf("session %s step %d: %s", e.Session, e.Seq, e.Reason)
}

// Unwrap returns ErrTraceMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrTraceMismatch
}
