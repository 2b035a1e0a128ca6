package options

import (
	"fmt"
	"strings"
)

// Usage renders the usage block for prog.
func (p *Parser) Usage(prog string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "USAGE: %s [options] %s\n", prog, strings.Join(p.positionals, " "))
	fmt.Fprintf(&sb, "USAGE: %s [%s]\n", prog, strings.Join(HelpFlags, "|"))
	if len(p.decls) == 0 {
		return sb.String()
	}
	sb.WriteString("\nOPTIONS:\n")
	for _, d := range p.decls {
		meta := string(d.Kind)
		if d.Kind == KindChoice {
			meta = strings.Join(choiceNames(d), "|")
		}
		line := fmt.Sprintf("  %-3s %-12s %s", d.Flag, d.Name, d.Help)
		var notes []string
		if meta != "" {
			notes = append(notes, meta)
		}
		if b := d.boundsText(); b != "" {
			notes = append(notes, b)
		}
		if d.Default != "" {
			notes = append(notes, "default="+d.Default)
		} else if d.Required() {
			notes = append(notes, "required")
		}
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, "; ") + ")"
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// ShortUsage is the first usage line, printed after argument errors.
func (p *Parser) ShortUsage(prog string) string {
	return fmt.Sprintf("USAGE: %s [options] %s", prog, strings.Join(p.positionals, " "))
}
