package compiler

import (
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/recipe"
)

// emitter flattens the lowered tree into instructions. Reader and writer
// code differ only in that readers have no OpEmit.
type emitter struct {
	code   []engine.Instr
	writer bool
}

func (e *emitter) add(in engine.Instr) int {
	e.code = append(e.code, in)
	return len(e.code) - 1
}

func (e *emitter) nodes(nodes []lnode) {
	for _, n := range nodes {
		e.node(n)
	}
}

func (e *emitter) node(n lnode) {
	switch x := n.(type) {
	case *lrecord:
		e.record(x)
	case *lsend:
		e.add(engine.Instr{Op: engine.OpSend})
	case *lloop:
		for _, p := range x.prepares {
			e.add(p)
		}
		e.loop(x.counter, x.from, x.to, func() { e.nodes(x.body) })
	case *lif:
		jump := e.add(engine.Instr{Op: engine.OpJumpIfNot, Cond: x.cond})
		e.nodes(x.then)
		if len(x.els) == 0 {
			e.code[jump].Target = len(e.code)
			return
		}
		skip := e.add(engine.Instr{Op: engine.OpJump})
		e.code[jump].Target = len(e.code)
		e.nodes(x.els)
		e.code[skip].Target = len(e.code)
	case *lsection:
		e.add(engine.Instr{Op: engine.OpOpen, Section: x.id})
		e.nodes(x.body)
		e.add(engine.Instr{Op: engine.OpClose, Section: x.id})
	}
}

// loop emits the init/next pair around body. Init jumps past the loop when
// the range is empty; next jumps back to the first body instruction.
func (e *emitter) loop(counter int, from, to engine.Expr, body func()) {
	init := e.add(engine.Instr{Op: engine.OpLoopInit, Counter: counter, From: from, To: to})
	start := len(e.code)
	body()
	e.add(engine.Instr{Op: engine.OpLoopNext, Counter: counter, Target: start})
	e.code[init].Target = len(e.code)
}

func (e *emitter) record(r *lrecord) {
	e.add(engine.Instr{Op: engine.OpLine, Kind: r.kind})
	for i, s := range r.slots {
		e.add(engine.Instr{Op: engine.OpSlot, Slot: s, Ptr: r.ptrs[i]})
	}
	switch r.kind {
	case recipe.LIST:
		e.add(engine.Instr{Op: engine.OpListBegin})
		e.items(r.items)
		e.add(engine.Instr{Op: engine.OpListEnd})
	case recipe.TAB1, recipe.TAB2:
		if r.table != 0 {
			e.add(engine.Instr{Op: engine.OpOpen, Section: r.table})
		}
		e.add(engine.Instr{Op: engine.OpTab, Tab: r.tab})
		if r.table != 0 {
			e.add(engine.Instr{Op: engine.OpClose, Section: r.table})
		}
	default:
		if e.writer {
			e.add(engine.Instr{Op: engine.OpEmit})
		}
	}
}

func (e *emitter) items(items []litem) {
	for _, it := range items {
		switch x := it.(type) {
		case *litemValue:
			e.add(engine.Instr{Op: engine.OpListItem, Slot: engine.Slot{Kind: engine.FloatField, Expr: x.expr}})
		case *litemLoop:
			e.loop(x.counter, x.from, x.to, func() { e.items(x.body) })
		}
	}
}
