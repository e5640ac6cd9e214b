package tape

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/parseopts"
)

// Split groups lines into the tape identification record and sections.
// FEND, MEND and TEND records are dropped; reading stops at TEND. A tape
// whose first line is not an MF0/MT0 record is rejected unless
// IgnoreMissingTPID is set.
func Split(ctx context.Context, lines []string, opts *parseopts.Options) (*Tape, error) {
	logger := ctxlog.FromContext(ctx)
	if opts == nil {
		opts = parseopts.Default()
	}

	t := &Tape{}
	var cur *Section
	flush := func() {
		if cur != nil {
			t.Sections = append(t.Sections, *cur)
			cur = nil
		}
	}

	first := true
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		mat, mf, mt, err := endfline.Ctl(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		if first {
			first = false
			if mf == 0 && mt == 0 {
				t.TPID = []string{line}
				continue
			}
			if !opts.IgnoreMissingTPID {
				return nil, &endferr.ControlRecordError{Record: "TPID", Reason: "tape does not start with a tape identification record", Line: line}
			}
		}

		switch {
		case mf == 0 && mat == -1:
			flush()
			logger.Debug("Split tape.", "sections", len(t.Sections), "tpid", len(t.TPID) > 0)
			return t, nil
		case mf == 0:
			flush()
		case mt == 0:
			if cur == nil {
				if opts.IgnoreSendRecords {
					continue
				}
				return nil, &endferr.ControlRecordError{Record: "SEND", Reason: "outside of a section", Line: line}
			}
			cur.Lines = append(cur.Lines, line)
			flush()
		default:
			key := Key{MAT: mat, MF: mf, MT: mt}
			if cur != nil && cur.Key != key {
				flush()
			}
			if cur == nil {
				cur = &Section{Key: key}
			}
			cur.Lines = append(cur.Lines, line)
		}
	}
	flush()

	logger.Debug("Split tape.", "sections", len(t.Sections), "tpid", len(t.TPID) > 0)
	return t, nil
}
