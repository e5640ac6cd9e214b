package parseopts

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// optionsBlock mirrors Options for HCL decoding. Pointer fields let an
// omitted attribute keep its default.
type optionsBlock struct {
	IgnoreNumberMismatch   *bool `hcl:"ignore_number_mismatch,optional"`
	IgnoreZeroMismatch     *bool `hcl:"ignore_zero_mismatch,optional"`
	IgnoreVarspecMismatch  *bool `hcl:"ignore_varspec_mismatch,optional"`
	AcceptSpaces           *bool `hcl:"accept_spaces,optional"`
	IgnoreSendRecords      *bool `hcl:"ignore_send_records,optional"`
	IgnoreMissingTPID      *bool `hcl:"ignore_missing_tpid,optional"`
	ValidateControlRecords *bool `hcl:"validate_control_records,optional"`
	StrictCompleteness     *bool `hcl:"strict_completeness,optional"`
}

type fileRoot struct {
	Options []*optionsBlock `hcl:"options,block"`
	Remain  hcl.Body        `hcl:",remain"`
}

// LoadFile reads an HCL file containing a single `options { ... }` block.
// A file without the block yields the defaults.
func LoadFile(path string) (*Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, diags)
	}
	return decode(path, file.Body)
}

// Parse is LoadFile over in-memory source.
func Parse(src []byte, filename string) (*Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse options %s: %w", filename, diags)
	}
	return decode(filename, file.Body)
}

func decode(filename string, body hcl.Body) (*Options, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode options %s: %w", filename, diags)
	}
	opts := Default()
	switch len(root.Options) {
	case 0:
		return opts, nil
	case 1:
	default:
		return nil, fmt.Errorf("%s: at most one options block is allowed, found %d", filename, len(root.Options))
	}

	b := root.Options[0]
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&opts.IgnoreNumberMismatch, b.IgnoreNumberMismatch)
	set(&opts.IgnoreZeroMismatch, b.IgnoreZeroMismatch)
	set(&opts.IgnoreVarspecMismatch, b.IgnoreVarspecMismatch)
	set(&opts.AcceptSpaces, b.AcceptSpaces)
	set(&opts.IgnoreSendRecords, b.IgnoreSendRecords)
	set(&opts.IgnoreMissingTPID, b.IgnoreMissingTPID)
	set(&opts.ValidateControlRecords, b.ValidateControlRecords)
	set(&opts.StrictCompleteness, b.StrictCompleteness)
	return opts, nil
}
