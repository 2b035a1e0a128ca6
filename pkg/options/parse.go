package options

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
)

// HelpFlags request the usage text.
var HelpFlags = []string{"-h", "-help", "-H"}

// Result is the outcome of a successful parse.
type Result struct {
	Set  Set
	Args []string
	// Help is set when a help flag was found; Set and Args are then empty.
	Help bool
}

// Parser validates tokens against a declaration table.
type Parser struct {
	decls       []Decl
	byFlag      map[string]Decl
	positionals []string
}

// NewParser builds a parser for decls followed by the named positional
// arguments. Duplicate flags or names panic.
func NewParser(positionals []string, decls ...Decl) *Parser {
	p := &Parser{decls: decls, byFlag: make(map[string]Decl, len(decls)), positionals: positionals}
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		if _, dup := p.byFlag[d.Flag]; dup || isHelp(d.Flag) {
			panic("options: duplicate or reserved flag " + d.Flag)
		}
		if names[d.Name] {
			panic("options: duplicate option name " + d.Name)
		}
		p.byFlag[d.Flag] = d
		names[d.Name] = true
	}
	return p
}

// Decls returns the declarations in declaration order.
func (p *Parser) Decls() []Decl {
	return p.decls
}

func isHelp(tok string) bool {
	for _, h := range HelpFlags {
		if tok == h {
			return true
		}
	}
	return false
}

func looksLikeFlag(tok string) bool {
	return len(tok) > 1 && tok[0] == '-'
}

// Parse validates tokens. Unknown flags, bad values and missing required
// options are ValidationErrors; a wrong positional count is a UsageError.
func (p *Parser) Parse(tokens []string) (Result, error) {
	set := newSet()
	var args []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if isHelp(tok) {
			return Result{Help: true}, nil
		}
		d, ok := p.byFlag[tok]
		if !ok {
			if looksLikeFlag(tok) {
				return Result{}, fxerr.Validation(tok, "unknown option")
			}
			args = append(args, tok)
			continue
		}
		if i+1 >= len(tokens) {
			return Result{}, fxerr.Validation(tok, "missing %s value", d.Name)
		}
		i++
		if err := p.assign(set, d, tokens[i]); err != nil {
			return Result{}, err
		}
		set.mark(d.Name)
	}
	if len(args) != len(p.positionals) {
		return Result{}, fxerr.Usage("expected %d arguments (%s), got %d",
			len(p.positionals), strings.Join(p.positionals, " "), len(args))
	}
	for _, d := range p.decls {
		if set.Has(d.Name) {
			continue
		}
		if d.Default == "" {
			if d.Required() {
				return Result{}, fxerr.Validation(d.Flag, "%s is required", d.Name)
			}
			continue
		}
		if err := p.assign(set, d, d.Default); err != nil {
			panic(fmt.Sprintf("options: bad default for %s: %v", d.Flag, err))
		}
	}
	return Result{Set: set, Args: args}, nil
}

func (p *Parser) assign(set Set, d Decl, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fxerr.Validation(d.Flag, "empty %s value", d.Name)
	}
	if raw[0] == '-' && !p.signedNumber(d, raw) {
		return fxerr.Validation(d.Flag, "%s value %q must not start with '-'", d.Name, raw)
	}
	switch d.Kind {
	case KindFloat:
		f, err := parseNumber(d, raw)
		if err != nil {
			return err
		}
		set.set(d.Name, f)
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fxerr.Validation(d.Flag, "%s: expected integer, got %q", d.Name, raw)
		}
		if err := checkBounds(d, float64(n)); err != nil {
			return err
		}
		set.set(d.Name, n)
	case KindChoice:
		for _, c := range d.Choices {
			if strings.EqualFold(c.Name, raw) {
				set.set(d.Name, c.Value)
				set.nameChoice(d.Name, c.Name)
				return nil
			}
		}
		return fxerr.Validation(d.Flag, "%s: %q is not one of %s", d.Name, raw, strings.Join(choiceNames(d), ", "))
	case KindPair, KindRange:
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return fxerr.Validation(d.Flag, "%s: expected two comma separated numbers, got %q", d.Name, raw)
		}
		a, err := parseNumber(d, parts[0])
		if err != nil {
			return err
		}
		b, err := parseNumber(d, parts[1])
		if err != nil {
			return err
		}
		if d.Kind == KindRange && a > b {
			return fxerr.Validation(d.Flag, "%s: low %s exceeds high %s", d.Name, fmtNum(a), fmtNum(b))
		}
		set.set(d.Name, Point{X: a, Y: b})
	case KindColor:
		c, err := ParseColor(raw)
		if err != nil {
			return fxerr.Validation(d.Flag, "%s: %v", d.Name, err)
		}
		set.set(d.Name, c)
	default:
		return fxerr.Validation(d.Flag, "unsupported option kind %q", d.Kind)
	}
	return nil
}

// signedNumber accepts a leading '-' only for numeric options whose lower
// bound admits negatives, and only when a digit follows.
func (p *Parser) signedNumber(d Decl, raw string) bool {
	switch d.Kind {
	case KindFloat, KindInt, KindPair, KindRange:
	default:
		return false
	}
	if !d.allowsNegative() || len(raw) < 2 {
		return false
	}
	c := raw[1]
	return (c >= '0' && c <= '9') || c == '.'
}

func parseNumber(d Decl, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if d.percent {
		s = strings.TrimSuffix(s, "%")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fxerr.Validation(d.Flag, "%s: expected number, got %q", d.Name, raw)
	}
	if err := checkBounds(d, f); err != nil {
		return 0, err
	}
	return f, nil
}

func checkBounds(d Decl, f float64) error {
	bad := false
	if d.min != nil {
		if d.minExclusive {
			bad = f <= *d.min
		} else {
			bad = f < *d.min
		}
	}
	if d.max != nil && f > *d.max {
		bad = true
	}
	if bad {
		return fxerr.Validation(d.Flag, "%s value %s out of range %s", d.Name, fmtNum(f), d.boundsText())
	}
	return nil
}

func choiceNames(d Decl) []string {
	out := make([]string, 0, len(d.Choices))
	for _, c := range d.Choices {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}
