// Package engine executes section routines.
//
// A Runtime holds the state of one parse or write call: the line stream,
// the result-mapping context and the Parse Configuration. Its primitives
// (BeginLine, Slot, Tab, BeginList, ListItem, EndList, Send, OpenSection,
// CloseSection) are shared by compiled Programs and by the interpreter, so
// both produce the same mapping and the same lines for the same recipe.
//
// A Program is a flat instruction sequence emitted by the compiler. It
// holds no run-time state; every Parse or Write call allocates its own
// variables and index-chain arena.
package engine
