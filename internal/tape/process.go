package tape

import (
	"context"
	"fmt"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/executor"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/registry"
	"github.com/vk/endfgo/internal/resultmap"
)

// Processor parses and writes tapes with the codecs of a registry.
type Processor struct {
	Registry *registry.Registry
	Executor executor.Executor
	Options  *parseopts.Options
}

// NewProcessor returns a Processor running sections on a pool of workers.
func NewProcessor(reg *registry.Registry, workers int, opts *parseopts.Options) *Processor {
	if opts == nil {
		opts = parseopts.Default()
	}
	return &Processor{Registry: reg, Executor: executor.New(workers), Options: opts}
}

// Parse reads every section of t that has a registered recipe. The result
// maps MF to MT to the section mapping; sections without a recipe map to
// their raw lines. The tape must hold a single material.
func (p *Processor) Parse(ctx context.Context, t *Tape) (*resultmap.Map, error) {
	ctx = ctxlog.With(ctx, "component", "tape")
	logger := ctxlog.FromContext(ctx)

	if err := singleMaterial(t); err != nil {
		return nil, err
	}

	root := resultmap.New()
	if len(t.TPID) > 0 {
		val, err := p.parseSection(t.TPID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("tape identification: %w", err)
		}
		mf0, _ := root.Ensure(0)
		mf0.Set(0, val)
	}

	results := make([]any, len(t.Sections))
	var tasks []executor.Task
	for i, sec := range t.Sections {
		if _, ok := p.Registry.Lookup(sec.Key.MF, sec.Key.MT); !ok {
			results[i] = rawLines(sec.Lines)
			continue
		}
		tasks = append(tasks, executor.Task{
			ID: sec.Key.String(),
			Run: func(ctx context.Context) error {
				val, err := p.parseSection(sec.Lines, sec.Key.MF, sec.Key.MT)
				if err != nil {
					return err
				}
				results[i] = val
				return nil
			},
		})
	}
	if err := p.Executor.Execute(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tape: %w", err)
	}

	for i, sec := range t.Sections {
		mfMap, err := root.Ensure(sec.Key.MF)
		if err != nil {
			return nil, err
		}
		if mfMap.Has(sec.Key.MT) {
			return nil, fmt.Errorf("section %s appears more than once", sec.Key)
		}
		mfMap.Set(sec.Key.MT, results[i])
	}

	logger.Info("Parsed tape.", "parsed", len(tasks), "unparsed", len(t.Sections)-len(tasks))
	return root, nil
}

func (p *Processor) parseSection(lines []string, mf, mt int) (any, error) {
	e, ok := p.Registry.Lookup(mf, mt)
	if !ok {
		return rawLines(lines), nil
	}
	m, err := e.Codec.Parse(endfline.FromLines(lines), p.Options)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", e.Recipe.Name, err)
	}
	return m, nil
}

// Write renders a tape mapping back into lines, closing every MF with FEND
// and the material with MEND and TEND.
func (p *Processor) Write(ctx context.Context, m *resultmap.Map) ([]string, error) {
	ctx = ctxlog.With(ctx, "component", "tape")
	logger := ctxlog.FromContext(ctx)

	type job struct {
		id    SectionID
		val   any
		lines []string
	}
	var jobs []*job
	var tpid *job
	for _, mf := range intKeys(m) {
		mfMap, ok := m.Sub(mf)
		if !ok {
			return nil, fmt.Errorf("MF%d does not hold a mapping of sections", mf)
		}
		for _, mt := range intKeys(mfMap) {
			val, _ := mfMap.Get(mt)
			j := &job{id: SectionID{MF: mf, MT: mt}, val: val}
			if mf == 0 {
				tpid = j
				continue
			}
			jobs = append(jobs, j)
		}
	}

	tasks := make([]executor.Task, len(jobs))
	for i, j := range jobs {
		tasks[i] = executor.Task{
			ID: fmt.Sprintf("MF%d/MT%d", j.id.MF, j.id.MT),
			Run: func(context.Context) error {
				var err error
				j.lines, err = p.writeSection(j.id, j.val)
				return err
			},
		}
	}
	if err := p.Executor.Execute(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to write tape: %w", err)
	}

	w := endfline.NewWriter()
	if tpid != nil {
		lines, err := p.writeSection(tpid.id, tpid.val)
		if err != nil {
			return nil, err
		}
		w.Append(lines...)
	}
	mat := 0
	for i, j := range jobs {
		if len(j.lines) == 0 {
			continue
		}
		if lmat, _, _, err := endfline.Ctl(j.lines[0]); err == nil {
			mat = lmat
		}
		w.Append(j.lines...)
		if i == len(jobs)-1 || jobs[i+1].id.MF != j.id.MF {
			if err := w.Fend(mat); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Mend(); err != nil {
		return nil, err
	}
	if err := w.Tend(); err != nil {
		return nil, err
	}

	logger.Info("Wrote tape.", "sections", len(jobs), "lines", len(w.Lines()))
	return w.Lines(), nil
}

func (p *Processor) writeSection(id SectionID, val any) ([]string, error) {
	switch v := val.(type) {
	case *resultmap.Map:
		e, ok := p.Registry.Lookup(id.MF, id.MT)
		if !ok {
			return nil, fmt.Errorf("no recipe for MF%d/MT%d", id.MF, id.MT)
		}
		lines, err := e.Codec.Write(v, p.Options)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", e.Recipe.Name, err)
		}
		return lines, nil
	case []string:
		return v, nil
	case []any:
		lines := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("MF%d/MT%d: raw line %d is a %T", id.MF, id.MT, i+1, item)
			}
			lines[i] = s
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("MF%d/MT%d holds a %T", id.MF, id.MT, val)
	}
}

func rawLines(lines []string) []any {
	out := make([]any, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}

func singleMaterial(t *Tape) error {
	for _, sec := range t.Sections[min(1, len(t.Sections)):] {
		if sec.Key.MAT != t.Sections[0].Key.MAT {
			return fmt.Errorf("tape holds materials %d and %d; only single-material tapes are supported", t.Sections[0].Key.MAT, sec.Key.MAT)
		}
	}
	return nil
}
