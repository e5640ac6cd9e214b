// Package registry maps ENDF sections to the codecs that read and write
// them.
//
// Recipes are loaded from HCL files, compiled (or wrapped for direct
// interpretation) and stored under the (MF, MT) pairs they claim. A recipe
// that lists MT numbers takes precedence over one that covers its whole MF.
// Two recipes claiming the same pair are rejected when they are added, so a
// populated Registry never has to choose between candidates at lookup time.
package registry
