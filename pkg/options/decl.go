// Package options declares and validates the script-style flags of an
// effect: single-dash flags that each take one value token, followed by a
// fixed number of positional file arguments.
package options

import (
	"fmt"
	"strconv"
)

// Kind is the declared type of an option value.
type Kind string

const (
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindChoice Kind = "choice"
	KindPair   Kind = "x,y"
	KindColor  Kind = "color"
	KindRange  Kind = "lo,hi"
)

// Choice is one member of an enumerated option. Value is the typed
// constant the effect switches on.
type Choice struct {
	Name  string
	Value int
}

// Decl declares a single option.
type Decl struct {
	Flag    string // "-c"
	Name    string // key in the Set
	Kind    Kind
	Default string // textual default, parsed like user input; "" means required
	Help    string
	Choices []Choice

	min, max       *float64
	minExclusive   bool
	percent        bool
	optionalNoDflt bool
}

func decl(kind Kind, flag, name, def, help string) Decl {
	return Decl{Flag: flag, Name: name, Kind: kind, Default: def, Help: help}
}

func Float(flag, name, def, help string) Decl { return decl(KindFloat, flag, name, def, help) }
func Int(flag, name, def, help string) Decl   { return decl(KindInt, flag, name, def, help) }
func Pair(flag, name, def, help string) Decl  { return decl(KindPair, flag, name, def, help) }
func Color(flag, name, def, help string) Decl { return decl(KindColor, flag, name, def, help) }
func Range(flag, name, def, help string) Decl { return decl(KindRange, flag, name, def, help) }

// OneOf declares an enumerated option; matching is case-insensitive.
func OneOf(flag, name, def, help string, choices ...Choice) Decl {
	d := decl(KindChoice, flag, name, def, help)
	d.Choices = choices
	return d
}

// Between bounds numeric values (and both components of pairs and ranges)
// to [lo, hi].
func (d Decl) Between(lo, hi float64) Decl {
	d.min, d.max = &lo, &hi
	return d
}

// AtLeast bounds numeric values to [lo, +inf).
func (d Decl) AtLeast(lo float64) Decl {
	d.min = &lo
	return d
}

// Above bounds numeric values to (lo, +inf).
func (d Decl) Above(lo float64) Decl {
	d.min = &lo
	d.minExclusive = true
	return d
}

// Percent lets the value carry an optional trailing '%'.
func (d Decl) Percent() Decl {
	d.percent = true
	return d
}

// Optional marks an option without default that may be left unset.
func (d Decl) Optional() Decl {
	d.optionalNoDflt = true
	return d
}

// Required reports whether the option must be given on the command line.
func (d Decl) Required() bool {
	return d.Default == "" && !d.optionalNoDflt
}

// Bounds returns the numeric limits; nil means unbounded. exclusive
// reports a strict lower bound.
func (d Decl) Bounds() (min, max *float64, exclusive bool) {
	return d.min, d.max, d.minExclusive
}

// IsPercent reports whether the value is a percentage; a trailing % is accepted.
func (d Decl) IsPercent() bool {
	return d.percent
}

// ChoiceNames returns the accepted names of an enumerated option, sorted.
func (d Decl) ChoiceNames() []string {
	return choiceNames(d)
}

func (d Decl) allowsNegative() bool {
	return d.min == nil || *d.min < 0
}

func (d Decl) boundsText() string {
	switch {
	case d.min != nil && d.max != nil:
		return fmt.Sprintf("[%s, %s]", fmtNum(*d.min), fmtNum(*d.max))
	case d.min != nil && d.minExclusive:
		return "> " + fmtNum(*d.min)
	case d.min != nil:
		return ">= " + fmtNum(*d.min)
	case d.max != nil:
		return "<= " + fmtNum(*d.max)
	}
	return ""
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
