package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/kway-mergeviz/pkg/merge"
)

// Reader reads a journal file through a read-only memory map.
type Reader struct {
	mmap *mmap.ReaderAt
	path string
}

// Open maps the journal at path.
func Open(path string) (*Reader, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Reader{mmap: r, path: path}, nil
}

// Close unmaps the file.
func (r *Reader) Close() error {
	if r.mmap != nil {
		return r.mmap.Close()
	}
	return nil
}

// Size returns the journal size in bytes.
func (r *Reader) Size() int {
	return r.mmap.Len()
}

// Records decodes every record in the file.
func (r *Reader) Records() ([]Record, error) {
	var records []Record
	var offset int64
	var expected uint64 = 1

	for offset < int64(r.mmap.Len()) {
		rec, n, err := readRecordAt(r.mmap, offset)
		if err != nil {
			return records, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		if rec.Seq != expected {
			return records, fmt.Errorf("%w: record %d out of sequence, expected %d", ErrCorrupt, rec.Seq, expected)
		}
		records = append(records, rec)
		offset += int64(n)
		expected++
	}
	return records, nil
}

// Sessions groups records into sessions.
func (r *Reader) Sessions() ([]Session, error) {
	records, err := r.Records()
	if err != nil {
		return nil, err
	}
	return groupSessions(records)
}

func groupSessions(records []Record) ([]Session, error) {
	var sessions []Session
	for _, rec := range records {
		switch rec.Kind {
		case KindHeader:
			var h Header
			if err := json.Unmarshal(rec.Data, &h); err != nil {
				return nil, fmt.Errorf("%w: header %d: %v", ErrCorrupt, rec.Seq, err)
			}
			sessions = append(sessions, Session{Header: h})
		case KindStep:
			if len(sessions) == 0 {
				return nil, fmt.Errorf("%w: step record %d before any header", ErrCorrupt, rec.Seq)
			}
			cur := &sessions[len(sessions)-1]
			var step merge.StepRecord
			if err := json.Unmarshal(rec.Data, &step); err != nil {
				return nil, fmt.Errorf("%w: step %d: %v", ErrCorrupt, rec.Seq, err)
			}
			cur.Steps = append(cur.Steps, step)
		default:
			return nil, fmt.Errorf("%w: record %d has unknown kind %d", ErrCorrupt, rec.Seq, rec.Kind)
		}
	}
	return sessions, nil
}

// readRecordAt decodes the frame at offset and returns it with its encoded
// size.
func readRecordAt(r *mmap.ReaderAt, offset int64) (Record, int, error) {
	size := int64(r.Len())
	if offset+frameHeaderSize > size {
		return Record{}, 0, fmt.Errorf("%w: truncated frame header: %v", ErrCorrupt, io.ErrUnexpectedEOF)
	}

	var hdr [frameHeaderSize]byte
	if _, err := r.ReadAt(hdr[:], offset); err != nil {
		return Record{}, 0, err
	}
	rec := Record{
		Seq:  binary.BigEndian.Uint64(hdr[0:8]),
		Kind: Kind(hdr[8]),
	}
	dataLen := int64(binary.BigEndian.Uint32(hdr[9:13]))

	end := offset + frameHeaderSize + dataLen + checksumSize
	if end > size {
		return Record{}, 0, fmt.Errorf("%w: truncated record %d: %v", ErrCorrupt, rec.Seq, io.ErrUnexpectedEOF)
	}

	compressed := make([]byte, dataLen)
	if _, err := r.ReadAt(compressed, offset+frameHeaderSize); err != nil {
		return Record{}, 0, err
	}
	var sum [checksumSize]byte
	if _, err := r.ReadAt(sum[:], offset+frameHeaderSize+dataLen); err != nil {
		return Record{}, 0, err
	}
	if crc32.ChecksumIEEE(compressed) != binary.BigEndian.Uint32(sum[:]) {
		return Record{}, 0, fmt.Errorf("%w: record %d", ErrChecksumMismatch, rec.Seq)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Record{}, 0, fmt.Errorf("failed to decompress record %d: %w", rec.Seq, err)
	}
	rec.Data = data
	return rec, int(end - offset), nil
}
