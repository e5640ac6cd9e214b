package engine

import (
	"fmt"

	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/indexchain"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/resultmap"
)

// machine is the per-invocation state of a Program.
type machine struct {
	prog   *Program
	vars   []*indexchain.Var
	counts []int
	limits []int
	ptrs   []Cursor

	owned     [][]*indexchain.Var
	mandatory [][]*indexchain.Var
}

func newMachine(p *Program) *machine {
	arena := indexchain.NewArena()
	m := &machine{
		prog:   p,
		vars:   make([]*indexchain.Var, len(p.Vars)),
		counts: make([]int, len(p.Vars)),
		limits: make([]int, len(p.Vars)),
		ptrs:   make([]Cursor, p.NumPtrs+1),
	}
	for i, info := range p.Vars {
		if !info.Counter {
			m.vars[i] = arena.NewVar(info.Name, info.Arity)
		}
	}
	m.owned = make([][]*indexchain.Var, len(p.Sections))
	m.mandatory = make([][]*indexchain.Var, len(p.Sections))
	for i, s := range p.Sections {
		for _, id := range s.Owned {
			m.owned[i] = append(m.owned[i], m.vars[id])
		}
		for _, id := range s.Mandatory {
			m.mandatory[i] = append(m.mandatory[i], m.vars[id])
		}
	}
	return m
}

func (m *machine) Lookup(r *Ref) (Binding, bool) {
	if r.ID < 0 || r.ID >= len(m.vars) {
		return Binding{}, false
	}
	if m.prog.Vars[r.ID].Counter {
		return Binding{Counter: true, Count: m.counts[r.ID]}, true
	}
	return Binding{Var: m.vars[r.ID]}, true
}

func (m *machine) Declare(r *Ref) (*indexchain.Var, error) {
	return nil, fmt.Errorf("engine: %s was not resolved by the compiler", r)
}

// Parse runs a reader program over in. A nil opts means the defaults.
func (p *Program) Parse(in *endfline.Reader, opts *parseopts.Options) (*resultmap.Map, error) {
	if p.Writer {
		return nil, fmt.Errorf("%s: writer routine cannot parse", p.Name)
	}
	if opts == nil {
		opts = parseopts.Default()
	}
	root := resultmap.New()
	m := newMachine(p)
	if err := m.run(NewReadRuntime(m, in, opts, root, p.TapeID)); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return root, nil
}

// Write runs a writer program over the values in data.
func (p *Program) Write(data *resultmap.Map, opts *parseopts.Options) ([]string, error) {
	if !p.Writer {
		return nil, fmt.Errorf("%s: reader routine cannot write", p.Name)
	}
	if opts == nil {
		opts = parseopts.Default()
	}
	m := newMachine(p)
	rt := NewWriteRuntime(m, opts, data, p.TapeID)
	if err := m.run(rt); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return rt.Lines(), nil
}

func (m *machine) run(rt *Runtime) error {
	code := m.prog.Code
	if err := rt.Begin(m.owned[0]); err != nil {
		return err
	}
	for pc := 0; pc < len(code); pc++ {
		in := &code[pc]
		var err error
		switch in.Op {
		case OpOpen:
			s := &m.prog.Sections[in.Section]
			err = rt.OpenSection(s.Name, s.Indices, m.owned[in.Section])
		case OpClose:
			s := &m.prog.Sections[in.Section]
			err = rt.CloseSection(s.Name, m.owned[in.Section], m.mandatory[in.Section])
		case OpLoopInit:
			var from, to int
			if from, err = EvalInt(m, in.From); err != nil {
				break
			}
			if to, err = EvalInt(m, in.To); err != nil {
				break
			}
			m.counts[in.Counter], m.limits[in.Counter] = from, to
			if from > to {
				pc = in.Target - 1
			}
		case OpLoopNext:
			m.counts[in.Counter]++
			if m.counts[in.Counter] <= m.limits[in.Counter] {
				pc = in.Target - 1
			}
		case OpJump:
			pc = in.Target - 1
		case OpJumpIfNot:
			var ok bool
			if ok, err = EvalBool(m, in.Cond); err == nil && !ok {
				pc = in.Target - 1
			}
		case OpPrepare:
			m.prepare(in)
		case OpLine:
			err = rt.BeginLine(in.Kind)
		case OpSlot:
			err = rt.Slot(in.Slot, m.cursor(in.Ptr))
		case OpEmit:
			err = rt.EmitLine()
		case OpTab:
			err = rt.Tab(in.Tab)
		case OpListBegin:
			err = rt.BeginList()
		case OpListItem:
			err = rt.ListItem(in.Slot.Expr, m.cursor(in.Ptr))
		case OpListEnd:
			err = rt.EndList()
		case OpSend:
			err = rt.Send()
		default:
			err = fmt.Errorf("engine: unknown opcode %v at %d", in.Op, pc)
		}
		if err != nil {
			return rt.evalErr(err)
		}
	}
	return rt.Finish(m.prog.Sections[0].Name, m.owned[0], m.mandatory[0])
}

// prepare descends one level ahead of the slots that use it. A failure
// leaves the register invalid and the slots descend from the root.
func (m *machine) prepare(in *Instr) {
	dst := &m.ptrs[in.Ptr]
	dst.Valid = false
	base, skip := m.vars[in.Var].Root(), 0
	if in.Base > 0 {
		src := m.ptrs[in.Base]
		if !src.Valid {
			return
		}
		base, skip = src.Handle, src.Skip
	}
	idx, err := EvalInt(m, in.Index)
	if err != nil {
		return
	}
	h, err := base.Prepare(idx)
	if err != nil {
		return
	}
	*dst = Cursor{Handle: h, Skip: skip + 1, Valid: true}
}

func (m *machine) cursor(ptr int) *Cursor {
	if ptr == 0 {
		return nil
	}
	return &m.ptrs[ptr]
}
