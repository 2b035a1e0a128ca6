package options

// Point is a coordinate pair or a two-component value.
type Point struct {
	X, Y float64
}

// Set holds validated option values keyed by Decl.Name. Accessors panic on
// names that were never declared: that is a programming error in the
// effect, not a user error.
type Set struct {
	values map[string]interface{}
	given  map[string]bool
	names  map[string]string
}

func newSet() Set {
	return Set{
		values: make(map[string]interface{}),
		given:  make(map[string]bool),
		names:  make(map[string]string),
	}
}

func (s Set) get(name string) interface{} {
	v, ok := s.values[name]
	if !ok {
		panic("options: undeclared or unset option " + name)
	}
	return v
}

// Has reports whether the option has a value (given or defaulted).
func (s Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Given reports whether the option appeared on the command line.
func (s Set) Given(name string) bool {
	return s.given[name]
}

func (s Set) Float(name string) float64    { return s.get(name).(float64) }
func (s Set) Int(name string) int          { return s.get(name).(int) }
func (s Set) Choice(name string) int       { return s.get(name).(int) }
func (s Set) Pair(name string) Point       { return s.get(name).(Point) }
func (s Set) Range(name string) Point      { return s.get(name).(Point) }
func (s Set) Color(name string) ColorValue { return s.get(name).(ColorValue) }

// ChoiceName returns the canonical spelling of the selected choice.
func (s Set) ChoiceName(name string) string {
	s.get(name)
	return s.names[name]
}

func (s Set) set(name string, v interface{}) { s.values[name] = v }
func (s Set) mark(name string)               { s.given[name] = true }
func (s Set) nameChoice(name, choice string) { s.names[name] = choice }
