package tape

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/executor"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/registry"
	"github.com/vk/endfgo/internal/resultmap"
	"github.com/vk/endfgo/internal/testutil"
)

func newProcessor(t *testing.T, workers int) *Processor {
	t.Helper()
	reg, err := registry.Default(testutil.Context(t), registry.DefaultOptions())
	require.NoError(t, err)
	return NewProcessor(reg, workers, nil)
}

var unparsed = []string{
	testutil.Record(125, 6, 5, 1001.0, 0.9991673, 0, 1, 1, 0),
	testutil.Record(125, 6, 5, 1.0, 1.0, 0, 1, 0, 0),
	testutil.Send(125, 6),
}

func sampleTape(t *testing.T) *resultmap.Map {
	t.Helper()
	root := resultmap.New()
	for _, name := range []string{"tpid", "mf1_451", "mf3_1", "mf3_102", "mf4_2_legendre"} {
		s := testutil.Samples[name]
		mfMap, err := root.Ensure(s.MF)
		require.NoError(t, err)
		mfMap.Set(s.MT, testutil.Sample(t, name))
	}
	mf6, err := root.Ensure(6)
	require.NoError(t, err)
	mf6.Set(5, rawLines(unparsed))
	return root
}

func TestProcessor_RoundTrip(t *testing.T) {
	for _, workers := range []int{1, 4} {
		p := newProcessor(t, workers)
		ctx, logs := testutil.NewContext(t)
		data := sampleTape(t)

		lines, err := p.Write(ctx, data)
		require.NoError(t, err)
		testutil.AssertLogged(t, logs, "Wrote tape.")

		assert.True(t, strings.HasPrefix(lines[0], "Sample tape for endfgo"))
		fends := 0
		for _, l := range lines {
			if endfline.IsControlRecord(l, endfline.FEND) {
				fends++
			}
		}
		assert.Equal(t, 4, fends, "one FEND per MF")
		assert.True(t, endfline.IsControlRecord(lines[len(lines)-2], endfline.MEND))
		assert.True(t, endfline.IsControlRecord(lines[len(lines)-1], endfline.TEND))

		tp, err := Split(ctx, lines, nil)
		require.NoError(t, err)
		require.Len(t, tp.TPID, 1)
		require.Len(t, tp.Sections, 5)
		assert.Equal(t, Key{MAT: 125, MF: 3, MT: 102}, tp.Sections[2].Key)

		parsed, err := p.Parse(ctx, tp)
		require.NoError(t, err)
		testutil.RequireMapEqual(t, data, parsed)
		testutil.AssertLogged(t, logs, "parsed=4 unparsed=1")
		testutil.AssertLogged(t, logs, `msg="Parsed tape." component=tape`)

		assert.Empty(t, cmp.Diff([]SectionID{{0, 0}, {1, 451}, {3, 1}, {3, 102}, {4, 2}}, ParsedSections(parsed)))
		assert.Empty(t, cmp.Diff([]SectionID{{6, 5}}, UnparsedSections(parsed)))

		again, err := p.Write(ctx, parsed)
		require.NoError(t, err)
		assert.Equal(t, lines, again)
	}
}

func TestSplit(t *testing.T) {
	tpid := testutil.Text(1, 0, 0, "tape")
	head := testutil.Record(125, 3, 1, 1001.0, 0.9991673, 0, 0, 0, 0)
	head2 := testutil.Record(125, 3, 2, 1001.0, 0.9991673, 0, 0, 0, 0)
	send := testutil.Send(125, 3)
	fend := testutil.Record(125, 0, 0, 0.0, 0.0, 0, 0, 0, 0)
	tend := testutil.Record(-1, 0, 0, 0.0, 0.0, 0, 0, 0, 0)

	testCases := []struct {
		name     string
		lines    []string
		options  map[string]bool
		wantTPID bool
		wantKeys []Key
		wantErr  func(t *testing.T, err error)
	}{
		{
			name:     "complete tape",
			lines:    []string{tpid, head, send, head2, send, fend, tend},
			wantTPID: true,
			wantKeys: []Key{{125, 3, 1}, {125, 3, 2}},
		},
		{
			name:     "blank lines and content after TEND are ignored",
			lines:    []string{tpid, "", head, send, tend, head2, send},
			wantTPID: true,
			wantKeys: []Key{{125, 3, 1}},
		},
		{
			name:     "section change without SEND",
			lines:    []string{tpid, head, head2, send},
			wantTPID: true,
			wantKeys: []Key{{125, 3, 1}, {125, 3, 2}},
		},
		{
			name:  "missing tape identification",
			lines: []string{head, send},
			wantErr: func(t *testing.T, err error) {
				var ce *endferr.ControlRecordError
				require.True(t, errors.As(err, &ce), "unexpected error: %v", err)
				assert.Equal(t, "TPID", ce.Record)
			},
		},
		{
			name:     "missing tape identification ignored",
			lines:    []string{head, send},
			options:  map[string]bool{"ignore_missing_tpid": true},
			wantKeys: []Key{{125, 3, 1}},
		},
		{
			name:  "SEND outside a section",
			lines: []string{tpid, send, head, send},
			wantErr: func(t *testing.T, err error) {
				var ce *endferr.ControlRecordError
				require.True(t, errors.As(err, &ce), "unexpected error: %v", err)
				assert.Equal(t, "SEND", ce.Record)
			},
		},
		{
			name:     "stray SEND ignored",
			lines:    []string{tpid, send, head, send},
			options:  map[string]bool{"ignore_send_records": true},
			wantTPID: true,
			wantKeys: []Key{{125, 3, 1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := parseopts.FromMap(tc.options)
			require.NoError(t, err)

			tp, err := Split(testutil.Context(t), tc.lines, opts)
			if tc.wantErr != nil {
				tc.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTPID, len(tp.TPID) == 1)

			var keys []Key
			for _, s := range tp.Sections {
				keys = append(keys, s.Key)
				assert.NotEmpty(t, s.Lines)
			}
			assert.Equal(t, tc.wantKeys, keys)
		})
	}
}

func TestProcessor_ParseErrors(t *testing.T) {
	p := newProcessor(t, 2)
	ctx := testutil.Context(t)

	lines, err := p.Write(ctx, sampleTape(t))
	require.NoError(t, err)
	tp, err := Split(ctx, lines, nil)
	require.NoError(t, err)

	t.Run("broken section", func(t *testing.T) {
		broken := *tp
		broken.Sections = append([]Section(nil), tp.Sections...)
		sec := broken.Sections[2]
		sec.Lines = sec.Lines[:len(sec.Lines)-3]
		broken.Sections[2] = sec

		_, err := p.Parse(ctx, &broken)
		var te *executor.TaskError
		require.True(t, errors.As(err, &te), "unexpected error: %v", err)
		assert.Equal(t, "MAT125/MF3/MT102", te.ID)
		var ce *endferr.ControlRecordError
		assert.True(t, errors.As(err, &ce), "unexpected error: %v", err)
	})

	t.Run("two materials", func(t *testing.T) {
		mixed := *tp
		mixed.Sections = append([]Section(nil), tp.Sections...)
		mixed.Sections[1].Key.MAT = 2631
		_, err := p.Parse(ctx, &mixed)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "materials 125 and 2631")
	})

	t.Run("duplicate section", func(t *testing.T) {
		dup := *tp
		dup.Sections = append(append([]Section(nil), tp.Sections...), tp.Sections[1])
		_, err := p.Parse(ctx, &dup)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "appears more than once")
	})
}

func TestProcessor_WriteErrors(t *testing.T) {
	p := newProcessor(t, 1)
	ctx := testutil.Context(t)

	testCases := []struct {
		name    string
		mutate  func(m *resultmap.Map)
		wantErr string
	}{
		{
			name: "mapping without recipe",
			mutate: func(m *resultmap.Map) {
				mf6, _ := m.Sub(6)
				mf6.Set(5, resultmap.New())
			},
			wantErr: "no recipe for MF6/MT5",
		},
		{
			name: "raw line of wrong type",
			mutate: func(m *resultmap.Map) {
				mf6, _ := m.Sub(6)
				mf6.Set(5, []any{"line", 3})
			},
			wantErr: "raw line 2",
		},
		{
			name: "MF without sections",
			mutate: func(m *resultmap.Map) {
				m.Set(8, 1)
			},
			wantErr: "MF8",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := sampleTape(t)
			tc.mutate(data)
			_, err := p.Write(ctx, data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a\r\nb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "", "c"}, lines)
}
