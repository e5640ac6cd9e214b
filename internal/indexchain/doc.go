/*
Package indexchain stores recipe variables whose array shape is only known
while a section is being read.

A variable of arity 0 is a single cell with an explicit read flag. A variable
of arity k>0 is a chain of k sparse levels: every level maps an integer index
either to the next level or, at the innermost level, to a value. Levels live
in an Arena and are addressed by LevelID instead of by pointer, so resetting
a variable between sections recycles its levels without leaving stale
references behind.

Each level tracks the smallest and largest index under which a value has
been stored (Unset when nothing has). An indexed variable has been read
exactly when its outermost level is non-empty; this is derived, never
flagged. Intermediate levels that were descended into but never received a
value are invisible to StartIndex, LastIndex, Contains and Indices, so
descending early (as hoisted loops do) never changes what a variable
reports.
*/
package indexchain
