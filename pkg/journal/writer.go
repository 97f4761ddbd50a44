package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
)

// Create creates or truncates the journal at path.
func Create(path string, opts ...Option) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	w := &Writer{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logging.Component("journal"), logging.Path(path))
	return w, nil
}

// OnInit starts a new session.
func (w *Writer) OnInit(snap merge.Snapshot) {
	data := make([][]int, len(snap.Streams))
	for i, s := range snap.Streams {
		data[i] = s.Data
	}
	w.record(KindHeader, Header{
		Session:   snap.Session,
		Config:    snap.Config,
		Generated: snap.Generated,
		Streams:   data,
		StartedAt: w.now().UTC(),
	})
}

// OnStep appends a step to the current session.
func (w *Writer) OnStep(rec merge.StepRecord) {
	w.record(KindStep, rec)
}

func (w *Writer) record(kind Kind, v any) {
	payload, err := json.Marshal(v)
	if err == nil {
		_, err = w.Append(kind, payload)
	}
	if err != nil {
		w.logger.Error("failed to record journal entry",
			logging.String("kind", kind.String()),
			logging.Error(err),
		)
	}
}

// Append writes one record and returns its sequence number. After the first
// write error the writer is unusable and returns that error.
func (w *Writer) Append(kind Kind, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return 0, w.err
	}
	if w.file == nil {
		return 0, fmt.Errorf("journal %s is closed", w.path)
	}

	compressed := snappy.Encode(nil, payload)
	seq := w.seq + 1

	if err := w.writeFrame(seq, kind, compressed); err != nil {
		w.err = fmt.Errorf("failed to write journal record: %w", err)
		return 0, w.err
	}
	if err := w.writer.Flush(); err != nil {
		w.err = fmt.Errorf("failed to flush journal: %w", err)
		return 0, w.err
	}

	w.seq = seq
	w.stats.Records++
	w.stats.BytesUncompressed += uint64(len(payload))
	w.stats.BytesCompressed += uint64(len(compressed))
	if w.metrics != nil {
		w.metrics.RecordJournalWrite(len(payload), len(compressed))
	}
	return seq, nil
}

func (w *Writer) writeFrame(seq uint64, kind Kind, data []byte) error {
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint64(hdr[0:8], seq)
	hdr[8] = byte(kind)
	binary.BigEndian.PutUint32(hdr[9:13], uint32(len(data)))

	if _, err := w.writer.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.writer.Write(data); err != nil {
		return err
	}
	return binary.Write(w.writer, binary.BigEndian, crc32.ChecksumIEEE(data))
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Stats returns compression statistics.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.path
}

// Sync flushes buffered records and syncs the file to disk.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the journal. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	defer func() { w.file = nil }()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}

	w.logger.Info("journal closed",
		logging.Int64("records", int64(w.stats.Records)),
		logging.Any("compression_ratio", w.stats.CompressionRatio()),
	)
	return w.file.Close()
}
