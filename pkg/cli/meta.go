package cli

import (
	"encoding/json"
	"io"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/effects"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/options"
)

// ParamType is the value type of an option in metadata.
type ParamType string

const (
	ParamTypeInt     ParamType = "int"
	ParamTypeFloat   ParamType = "float"
	ParamTypePercent ParamType = "percent"
	ParamTypeEnum    ParamType = "enum"
	ParamTypeColor   ParamType = "color"
	ParamTypePair    ParamType = "pair"
	ParamTypeRange   ParamType = "range"
)

// ValidationRule lets a client validate an option before invoking an
// effect. It carries the same constraints the parser enforces.
type ValidationRule struct {
	Flag         string    `json:"flag"`
	Name         string    `json:"name"`
	Type         ParamType `json:"type"`
	Required     bool      `json:"required"`
	Min          *float64  `json:"min,omitempty"`
	Max          *float64  `json:"max,omitempty"`
	MinExclusive bool      `json:"minExclusive,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	EnumOptions  []string  `json:"enumOptions,omitempty"`
	Default      string    `json:"default,omitempty"`
	Hint         string    `json:"hint,omitempty"`
}

// EffectMeta describes one effect.
type EffectMeta struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Usage       string           `json:"usage"`
	Options     []ValidationRule `json:"options"`
}

// Describe returns the metadata of e.
func Describe(e *effects.Effect) EffectMeta {
	p := e.Parser()
	m := EffectMeta{
		Name:        e.Name,
		Description: e.Description,
		Usage:       p.ShortUsage(e.Name),
	}
	for _, d := range p.Decls() {
		m.Options = append(m.Options, ruleFor(d))
	}
	return m
}

func ruleFor(d options.Decl) ValidationRule {
	r := ValidationRule{
		Flag:     d.Flag,
		Name:     d.Name,
		Required: d.Required(),
		Default:  d.Default,
		Hint:     d.Help,
	}
	r.Min, r.Max, r.MinExclusive = d.Bounds()
	switch d.Kind {
	case options.KindInt:
		r.Type = ParamTypeInt
	case options.KindChoice:
		r.Type = ParamTypeEnum
		r.EnumOptions = d.ChoiceNames()
	case options.KindColor:
		r.Type = ParamTypeColor
	case options.KindPair:
		r.Type = ParamTypePair
	case options.KindRange:
		r.Type = ParamTypeRange
	default:
		r.Type = ParamTypeFloat
	}
	if d.IsPercent() {
		if r.Type == ParamTypeFloat {
			r.Type = ParamTypePercent
		}
		r.Unit = "%"
	}
	return r
}

func writeMeta(w io.Writer, list []*effects.Effect) error {
	metas := make([]EffectMeta, 0, len(list))
	for _, e := range list {
		metas = append(metas, Describe(e))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(metas)
}
