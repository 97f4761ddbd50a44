package journal

import (
	"fmt"
	"slices"

	"github.com/dd0wney/kway-mergeviz/pkg/merge"
)

// Report summarises a successful verification.
type Report struct {
	Sessions int
	Steps    int
}

// Verify replays every session in the journal at path and compares the
// replayed trace with the recorded one. Generated sessions are regenerated
// from their configuration, so a journal written by another build checks
// that both produce the same streams and the same merge.
//
// The returned error wraps ErrTraceMismatch (as a *MismatchError) on the
// first divergence.
func Verify(path string) (*Report, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sessions, err := r.Sessions()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, s := range sessions {
		if err := VerifySession(s); err != nil {
			return report, err
		}
		report.Sessions++
		report.Steps += len(s.Steps)
	}
	return report, nil
}

// VerifySession replays a single recorded session.
func VerifySession(s Session) error {
	h := s.Header
	mismatch := func(seq int, format string, args ...any) error {
		return &MismatchError{Session: h.Session, Seq: seq, Reason: fmt.Sprintf(format, args...)}
	}

	var (
		eng *merge.Engine
		err error
	)
	if h.Generated {
		eng, err = merge.New(h.Config)
	} else {
		eng, err = merge.NewFromStreams(h.Streams)
	}
	if err != nil {
		return mismatch(0, "cannot rebuild engine: %v", err)
	}

	replayed := eng.Snapshot().Streams
	if len(replayed) != len(h.Streams) {
		return mismatch(0, "recorded %d streams, replay generated %d", len(h.Streams), len(replayed))
	}
	for i := range replayed {
		if !slices.Equal(replayed[i].Data, h.Streams[i]) {
			return mismatch(0, "stream %d: recorded %v, replay generated %v", i, h.Streams[i], replayed[i].Data)
		}
	}

	for range s.Steps {
		if !eng.Step() {
			break
		}
	}
	got := eng.Trace()
	for i, want := range s.Steps {
		if i >= len(got) {
			return mismatch(want.Seq, "replay exhausted after %d steps", len(got))
		}
		if got[i] != want {
			return mismatch(want.Seq, "recorded %+v, replayed %+v", want, got[i])
		}
	}
	return nil
}
