package engine

import (
	"fmt"
	"strings"

	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/resultmap"
)

// Codec reads and writes one kind of section. Compiled routine pairs and
// interpreted recipes both implement it.
type Codec interface {
	Parse(in *endfline.Reader, opts *parseopts.Options) (*resultmap.Map, error)
	Write(data *resultmap.Map, opts *parseopts.Options) ([]string, error)
}

// Opcode is one instruction kind of a compiled routine.
type Opcode uint8

const (
	OpOpen      Opcode = iota // open Section
	OpClose                   // close Section
	OpLoopInit                // Counter = From; jump to Target when From > To
	OpLoopNext                // Counter++; jump to Target while Counter <= its bound
	OpJump                    // jump to Target
	OpJumpIfNot               // jump to Target unless Cond holds
	OpPrepare                 // Ptr = level of Var below Index, starting at Base
	OpLine                    // begin a record of Kind
	OpSlot                    // read or write Slot, through Ptr when set
	OpEmit                    // flush the record (writers)
	OpTab                     // TAB1/TAB2 body
	OpListBegin
	OpListItem // Slot.Expr is the item
	OpListEnd
	OpSend
)

var opNames = [...]string{
	"open", "close", "loop", "next", "jump", "jumpifnot", "prepare",
	"line", "slot", "emit", "tab", "list", "item", "endlist", "send",
}

func (o Opcode) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// Instr is a single instruction. Only the fields named by the opcode are
// meaningful.
type Instr struct {
	Op       Opcode
	Kind     recipe.RecordKind
	Section  int
	Counter  int
	From, To Expr
	Cond     Expr
	Target   int
	Slot     Slot
	Tab      *Tab

	// Ptr is the prepared-level register used by OpSlot and OpListItem.
	// Registers are numbered from 1; 0 means none. For OpPrepare it is the
	// destination register.
	Ptr   int
	Var   int
	Base  int // register to descend from, 0 for the root level
	Index Expr
}

// VarInfo describes a variable or loop counter slot. Ref.ID indexes
// Program.Vars.
type VarInfo struct {
	Name      string
	Arity     int
	Counter   bool
	Section   int
	Mandatory bool
}

// SectionInfo describes a section. Section 0 is the recipe itself.
type SectionInfo struct {
	Name      string
	Indices   []Expr
	Owned     []int
	Mandatory []int
}

// Program is a compiled reader or writer routine. It holds no run-time
// state and may be executed concurrently.
type Program struct {
	Name     string
	Writer   bool
	TapeID   bool
	Code     []Instr
	Vars     []VarInfo
	Sections []SectionInfo
	NumPtrs  int
}

// Disassemble renders the program one instruction per line.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	for pc, in := range p.Code {
		fmt.Fprintf(&sb, "%4d  %-9s", pc, in.Op)
		switch in.Op {
		case OpOpen, OpClose:
			sb.WriteString(p.Sections[in.Section].Name)
		case OpLoopInit:
			fmt.Fprintf(&sb, "%s = %s..%s -> %d", p.Vars[in.Counter].Name, in.From, in.To, in.Target)
		case OpLoopNext:
			fmt.Fprintf(&sb, "%s -> %d", p.Vars[in.Counter].Name, in.Target)
		case OpJump:
			fmt.Fprintf(&sb, "-> %d", in.Target)
		case OpJumpIfNot:
			fmt.Fprintf(&sb, "%s -> %d", in.Cond, in.Target)
		case OpPrepare:
			fmt.Fprintf(&sb, "p%d = %s[%s] from p%d", in.Ptr, p.Vars[in.Var].Name, in.Index, in.Base)
		case OpLine:
			sb.WriteString(in.Kind.String())
		case OpSlot, OpListItem:
			if in.Slot.Expr != nil {
				fmt.Fprintf(&sb, "%s %s", in.Slot, in.Slot.Expr)
			} else {
				fmt.Fprintf(&sb, "%s blank", in.Slot)
			}
			if in.Ptr > 0 {
				fmt.Fprintf(&sb, " via p%d", in.Ptr)
			}
		case OpTab:
			fmt.Fprintf(&sb, "%s", in.Tab.Kind)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
