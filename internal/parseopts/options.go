// Package parseopts holds the Parse Configuration: a read-only set of named
// boolean toggles threaded by pointer through every call of one parse or
// write operation.
package parseopts

import (
	"fmt"
	"sort"
	"strings"
)

// Options governs the leniency of the field codec and the result assembler.
// Callers must treat an Options value as immutable once a parse has started.
type Options struct {
	IgnoreNumberMismatch   bool
	IgnoreZeroMismatch     bool
	IgnoreVarspecMismatch  bool
	AcceptSpaces           bool
	IgnoreSendRecords      bool
	IgnoreMissingTPID      bool
	ValidateControlRecords bool
	StrictCompleteness     bool
}

// Default returns the documented default configuration.
func Default() *Options {
	return &Options{
		IgnoreNumberMismatch:   false,
		IgnoreZeroMismatch:     true,
		IgnoreVarspecMismatch:  false,
		AcceptSpaces:           true,
		IgnoreSendRecords:      false,
		IgnoreMissingTPID:      false,
		ValidateControlRecords: false,
		StrictCompleteness:     false,
	}
}

// toggles maps the external toggle names onto the struct fields.
var toggles = map[string]func(o *Options) *bool{
	"ignore_number_mismatch":   func(o *Options) *bool { return &o.IgnoreNumberMismatch },
	"ignore_zero_mismatch":     func(o *Options) *bool { return &o.IgnoreZeroMismatch },
	"ignore_varspec_mismatch":  func(o *Options) *bool { return &o.IgnoreVarspecMismatch },
	"accept_spaces":            func(o *Options) *bool { return &o.AcceptSpaces },
	"ignore_send_records":      func(o *Options) *bool { return &o.IgnoreSendRecords },
	"ignore_missing_tpid":      func(o *Options) *bool { return &o.IgnoreMissingTPID },
	"validate_control_records": func(o *Options) *bool { return &o.ValidateControlRecords },
	"strict_completeness":      func(o *Options) *bool { return &o.StrictCompleteness },
}

// Names returns all toggle names in sorted order.
func Names() []string {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromMap builds Options from a partial map of toggle names. Absent toggles
// keep their defaults; unknown names are rejected.
func FromMap(m map[string]bool) (*Options, error) {
	opts := Default()
	var unknown []string
	for name, val := range m {
		field, ok := toggles[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		*field(opts) = val
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown parse option(s): %s", strings.Join(unknown, ", "))
	}
	return opts, nil
}

// Map returns the full toggle set keyed by external name.
func (o *Options) Map() map[string]bool {
	m := make(map[string]bool, len(toggles))
	for name, field := range toggles {
		m[name] = *field(o)
	}
	return m
}
