package hclrecipe

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var recordKinds = map[string]recipe.RecordKind{
	"text": recipe.TEXT,
	"cont": recipe.CONT,
	"head": recipe.HEAD,
	"dir":  recipe.DIR,
	"list": recipe.LIST,
	"tab1": recipe.TAB1,
	"tab2": recipe.TAB2,
}

// defaultCtl is used when a record omits ctl.
func defaultCtl() [3]recipe.Expr {
	return [3]recipe.Expr{recipe.Ref("MAT"), recipe.Ref("MF"), recipe.Ref("MT")}
}

func (t *translator) recipe(block *hclsyntax.Block) *recipe.Recipe {
	r := &recipe.Recipe{Name: block.Labels[0], Pos: block.DefRange().String()}
	attrs := t.attrs(block.Body, "mf", "mt")

	if attr, ok := attrs["mf"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &r.MF); diags.HasErrors() {
			t.diags = append(t.diags, diags...)
		}
	} else {
		t.errorf(block.DefRange(), "Missing attribute", "recipe %q needs an mf attribute", r.Name)
	}
	if attr, ok := attrs["mt"]; ok {
		r.MTs = t.intList(attr)
	}
	r.Body = t.body(block.Body.Blocks)
	return r
}

// intList accepts a single number or a list of numbers.
func (t *translator) intList(attr *hclsyntax.Attribute) []int {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		t.diags = append(t.diags, diags...)
		return nil
	}
	if val.Type() == cty.Number {
		val = cty.ListVal([]cty.Value{val})
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		t.errorf(attr.Expr.Range(), "Invalid list", "%s must be a number or a list of numbers: %s", attr.Name, err)
		return nil
	}
	var out []int
	if err := gocty.FromCtyValue(list, &out); err != nil {
		t.errorf(attr.Expr.Range(), "Invalid list", "%s must hold integers: %s", attr.Name, err)
		return nil
	}
	return out
}

// attrs returns the attributes of body and reports any not in allowed.
func (t *translator) attrs(body *hclsyntax.Body, allowed ...string) map[string]*hclsyntax.Attribute {
	out := make(map[string]*hclsyntax.Attribute, len(body.Attributes))
	for name, attr := range body.Attributes {
		ok := false
		for _, a := range allowed {
			if a == name {
				ok = true
				break
			}
		}
		if !ok {
			t.errorf(attr.NameRange, "Unsupported argument", "an argument named %q is not expected here", name)
			continue
		}
		out[name] = attr
	}
	return out
}

func (t *translator) body(blocks hclsyntax.Blocks) []recipe.Node {
	var out []recipe.Node
	for _, block := range blocks {
		pos := block.DefRange().String()
		switch block.Type {
		case "send":
			t.attrs(block.Body)
			out = append(out, &recipe.Send{Pos: pos})
		case "for":
			if len(block.Labels) != 1 {
				t.errorf(block.DefRange(), "Invalid loop", "expected `for \"<counter>\" { from = ... to = ... }`")
				continue
			}
			attrs := t.attrs(block.Body, "from", "to")
			out = append(out, &recipe.Loop{
				Counter: block.Labels[0],
				From:    t.required(attrs, "from", block),
				To:      t.required(attrs, "to", block),
				Body:    t.body(block.Body.Blocks),
				Pos:     pos,
			})
		case "if":
			attrs := t.attrs(block.Body, "cond")
			out = append(out, &recipe.If{
				Cond: t.required(attrs, "cond", block),
				Then: t.body(block.Body.Blocks),
				Pos:  pos,
			})
		case "else":
			t.attrs(block.Body)
			var prev *recipe.If
			if len(out) > 0 {
				prev, _ = out[len(out)-1].(*recipe.If)
			}
			if prev == nil || prev.Else != nil {
				t.errorf(block.DefRange(), "Unexpected else", "an else block must directly follow an if block")
				continue
			}
			prev.Else = t.body(block.Body.Blocks)
			if prev.Else == nil {
				prev.Else = []recipe.Node{}
			}
		case "section":
			if len(block.Labels) != 1 {
				t.errorf(block.DefRange(), "Invalid section", "expected `section \"<name>\" { ... }`")
				continue
			}
			attrs := t.attrs(block.Body, "index")
			out = append(out, &recipe.Section{
				Name:    block.Labels[0],
				Indices: t.exprList(attrs["index"]),
				Body:    t.body(block.Body.Blocks),
				Pos:     pos,
			})
		default:
			kind, ok := recordKinds[block.Type]
			if !ok {
				t.errorf(block.DefRange(), "Unsupported block type", "blocks of type %q are not expected here", block.Type)
				continue
			}
			if rec := t.record(kind, block); rec != nil {
				out = append(out, rec)
			}
		}
	}
	return out
}

func (t *translator) required(attrs map[string]*hclsyntax.Attribute, name string, block *hclsyntax.Block) recipe.Expr {
	attr, ok := attrs[name]
	if !ok {
		t.errorf(block.DefRange(), "Missing attribute", "%s block needs %s", block.Type, name)
		return recipe.Int(0)
	}
	return t.expr(attr.Expr)
}

func (t *translator) record(kind recipe.RecordKind, block *hclsyntax.Block) *recipe.Record {
	rec := &recipe.Record{Kind: kind, Ctl: defaultCtl(), Pos: block.DefRange().String()}
	allowed := []string{"ctl", "fields"}
	switch kind {
	case recipe.LIST:
		allowed = append(allowed, "items")
	case recipe.TAB1:
		allowed = append(allowed, "x", "y", "index")
	case recipe.TAB2:
		allowed = append(allowed, "nz", "index")
	}
	attrs := t.attrs(block.Body, allowed...)
	if len(block.Body.Blocks) > 0 {
		t.errorf(block.Body.Blocks[0].DefRange(), "Unexpected block", "%s records take no nested blocks", block.Type)
	}

	switch kind {
	case recipe.TAB1, recipe.TAB2:
		if len(block.Labels) > 1 {
			t.errorf(block.DefRange(), "Invalid table", "a table takes at most one label")
			return nil
		}
		if len(block.Labels) == 1 {
			rec.Table = block.Labels[0]
			rec.TableIndices = t.exprList(attrs["index"])
		} else if _, ok := attrs["index"]; ok {
			t.errorf(attrs["index"].NameRange, "Invalid table", "only a labelled table takes an index")
		}
	default:
		if len(block.Labels) > 0 {
			t.errorf(block.DefRange(), "Unexpected label", "%s records take no label", block.Type)
			return nil
		}
	}

	if attr, ok := attrs["ctl"]; ok {
		ctl := t.exprList(attr)
		if len(ctl) != 3 {
			t.errorf(attr.Expr.Range(), "Invalid ctl", "ctl must list MAT, MF and MT")
		} else {
			copy(rec.Ctl[:], ctl)
		}
	}

	fields := t.exprList(attrs["fields"])
	want := 6
	switch kind {
	case recipe.TEXT:
		want = 1
	case recipe.TAB1, recipe.TAB2:
		want = 4
	}
	if attr, ok := attrs["fields"]; ok && len(fields) != want {
		t.errorf(attr.Expr.Range(), "Invalid fields", "%s records take %d fields, found %d", block.Type, want, len(fields))
		return nil
	}
	copy(rec.Fields[:], fields)

	switch kind {
	case recipe.LIST:
		if attr, ok := attrs["items"]; ok {
			rec.Items = t.items(attr.Expr)
		}
	case recipe.TAB1:
		rec.X = t.keyword(attrs, "x", block)
		rec.Y = t.keyword(attrs, "y", block)
	case recipe.TAB2:
		if attr, ok := attrs["nz"]; ok {
			rec.Fields[5] = t.expr(attr.Expr)
		}
	}
	return rec
}

func (t *translator) keyword(attrs map[string]*hclsyntax.Attribute, name string, block *hclsyntax.Block) string {
	attr, ok := attrs[name]
	if !ok {
		t.errorf(block.DefRange(), "Missing attribute", "%s block needs %s", block.Type, name)
		return ""
	}
	kw := hcl.ExprAsKeyword(attr.Expr)
	if kw == "" {
		t.errorf(attr.Expr.Range(), "Invalid name", "%s must be a bare variable name", name)
	}
	return kw
}

// exprList translates a tuple attribute. A nil attribute yields nil.
func (t *translator) exprList(attr *hclsyntax.Attribute) []recipe.Expr {
	if attr == nil {
		return nil
	}
	tuple, ok := attr.Expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		t.errorf(attr.Expr.Range(), "Invalid list", "%s must be a list", attr.Name)
		return nil
	}
	out := make([]recipe.Expr, len(tuple.Exprs))
	for i, e := range tuple.Exprs {
		out[i] = t.expr(e)
	}
	return out
}

// items translates a LIST body. `[for i in seq(a, b) : item]` and
// `[for i in seq(a, b) : [item, item]]` become inline loops; a body that is
// a single comprehension needs no enclosing list.
func (t *translator) items(e hclsyntax.Expression) []recipe.ListItem {
	if loop, ok := e.(*hclsyntax.ForExpr); ok {
		return t.item(loop)
	}
	tuple, ok := e.(*hclsyntax.TupleConsExpr)
	if !ok {
		t.errorf(e.Range(), "Invalid items", "items must be a list")
		return nil
	}
	var out []recipe.ListItem
	for _, el := range tuple.Exprs {
		out = append(out, t.item(el)...)
	}
	return out
}

func (t *translator) item(e hclsyntax.Expression) []recipe.ListItem {
	switch x := e.(type) {
	case *hclsyntax.ForExpr:
		call, ok := x.CollExpr.(*hclsyntax.FunctionCallExpr)
		if x.KeyVar != "" || x.KeyExpr != nil || x.CondExpr != nil || !ok || call.Name != "seq" || len(call.Args) != 2 {
			t.errorf(x.Range(), "Invalid list loop", "expected `[for i in seq(from, to) : item]`")
			return nil
		}
		loop := &recipe.ListLoop{Counter: x.ValVar, From: t.expr(call.Args[0]), To: t.expr(call.Args[1])}
		if inner, ok := x.ValExpr.(*hclsyntax.TupleConsExpr); ok {
			for _, el := range inner.Exprs {
				loop.Body = append(loop.Body, t.item(el)...)
			}
		} else {
			loop.Body = t.item(x.ValExpr)
		}
		return []recipe.ListItem{loop}
	case *hclsyntax.TupleConsExpr:
		var out []recipe.ListItem
		for _, el := range x.Exprs {
			out = append(out, t.item(el)...)
		}
		return out
	default:
		return []recipe.ListItem{&recipe.ListValue{Expr: t.expr(e)}}
	}
}

var binaryOps = map[*hclsyntax.Operation]recipe.Op{
	hclsyntax.OpAdd:                recipe.OpAdd,
	hclsyntax.OpSubtract:           recipe.OpSub,
	hclsyntax.OpMultiply:           recipe.OpMul,
	hclsyntax.OpDivide:             recipe.OpDiv,
	hclsyntax.OpEqual:              recipe.OpEq,
	hclsyntax.OpNotEqual:           recipe.OpNe,
	hclsyntax.OpLessThan:           recipe.OpLt,
	hclsyntax.OpLessThanOrEqual:    recipe.OpLe,
	hclsyntax.OpGreaterThan:        recipe.OpGt,
	hclsyntax.OpGreaterThanOrEqual: recipe.OpGe,
	hclsyntax.OpLogicalAnd:         recipe.OpAnd,
	hclsyntax.OpLogicalOr:          recipe.OpOr,
}

// expr translates an HCL expression. A null literal becomes nil, which
// marks a blank field.
func (t *translator) expr(e hclsyntax.Expression) recipe.Expr {
	switch x := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		return t.literal(x)
	case *hclsyntax.ParenthesesExpr:
		return t.expr(x.Expression)
	case *hclsyntax.ScopeTraversalExpr:
		return t.traversal(x.Traversal)
	case *hclsyntax.IndexExpr:
		coll, ok := t.expr(x.Collection).(*recipe.VarRef)
		if !ok {
			t.errorf(x.Range(), "Invalid index", "only variables can be indexed")
			return recipe.Int(0)
		}
		return &recipe.VarRef{Name: coll.Name, Indices: append(coll.Indices, t.expr(x.Key))}
	case *hclsyntax.RelativeTraversalExpr:
		// A[i][2]: literal indices following a computed one.
		src, ok := t.expr(x.Source).(*recipe.VarRef)
		if !ok {
			t.errorf(x.Range(), "Invalid index", "only variables can be indexed")
			return recipe.Int(0)
		}
		rest, ok := t.indices(x.Traversal)
		if !ok {
			return recipe.Int(0)
		}
		return &recipe.VarRef{Name: src.Name, Indices: append(src.Indices, rest...)}
	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[x.Op]
		if !ok {
			t.errorf(x.Range(), "Unsupported operator", "this operator is not available in recipes")
			return recipe.Int(0)
		}
		return &recipe.Binary{Op: op, L: t.expr(x.LHS), R: t.expr(x.RHS)}
	case *hclsyntax.UnaryOpExpr:
		inner := t.expr(x.Val)
		if x.Op == hclsyntax.OpLogicalNot {
			return &recipe.Unary{Op: recipe.OpNot, X: inner}
		}
		if n, ok := inner.(*recipe.Num); ok {
			return &recipe.Num{Value: -n.Value, Int: n.Int}
		}
		return &recipe.Unary{Op: recipe.OpNeg, X: inner}
	default:
		t.errorf(e.Range(), "Unsupported expression", "only numbers, variables and arithmetic are allowed in recipes")
		return recipe.Int(0)
	}
}

func (t *translator) literal(x *hclsyntax.LiteralValueExpr) recipe.Expr {
	if x.Val.IsNull() {
		return nil
	}
	if x.Val.Type() != cty.Number {
		t.errorf(x.Range(), "Invalid literal", "only numbers and null are allowed, found %s", x.Val.Type().FriendlyName())
		return recipe.Int(0)
	}
	var f float64
	if err := gocty.FromCtyValue(x.Val, &f); err != nil {
		t.errorf(x.Range(), "Invalid number", "%s", err)
		return recipe.Int(0)
	}
	rng := x.Range()
	text := ""
	if rng.End.Byte <= len(t.src) {
		text = string(t.src[rng.Start.Byte:rng.End.Byte])
	}
	return &recipe.Num{Value: f, Int: !strings.ContainsAny(text, ".eE")}
}

func (t *translator) traversal(tr hcl.Traversal) recipe.Expr {
	root, ok := tr[0].(hcl.TraverseRoot)
	if !ok {
		t.errorf(tr.SourceRange(), "Invalid reference", "expected a variable name")
		return recipe.Int(0)
	}
	indices, ok := t.indices(tr[1:])
	if !ok {
		return recipe.Int(0)
	}
	return &recipe.VarRef{Name: root.Name, Indices: indices}
}

// indices translates literal index steps such as [2].
func (t *translator) indices(tr hcl.Traversal) ([]recipe.Expr, bool) {
	var out []recipe.Expr
	for _, step := range tr {
		idx, ok := step.(hcl.TraverseIndex)
		if !ok || idx.Key.Type() != cty.Number {
			t.errorf(step.SourceRange(), "Invalid reference", "variables take only numeric indices, as in A[i][2]")
			return nil, false
		}
		var n int
		if err := gocty.FromCtyValue(idx.Key, &n); err != nil {
			t.errorf(step.SourceRange(), "Invalid index", "%s", err)
			return nil, false
		}
		out = append(out, recipe.Int(n))
	}
	return out, true
}
