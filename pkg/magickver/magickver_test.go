package magickver

import (
	"testing"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		in string
		ex string
	}{
		{"6.9.12-98", "6.9.12-98"},
		{"7.1.1", "7.1.1-0"},
		{"7.1.1-21 Q16-HDRI", "7.1.1-21 Q16-HDRI"},
		{" 6.7.7-10 ", "6.7.7-10"},
	}
	for _, c := range cases {
		v, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", c.in, err)
		}
		if s := v.String(); s != c.ex {
			t.Fatalf("Parse(%q).String() = %q; want %q", c.in, s, c.ex)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"6.9", "a.b.c", "6.9.x", "", "6.9.12-beta"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("Parse(%q) expected error", c)
		}
	}
}

func TestParseBanner(t *testing.T) {
	cases := []struct {
		in      string
		version string
		quantum string
	}{
		{"Version: ImageMagick 6.9.11-60 Q16 x86_64 2021-01-25 https://imagemagick.org\nCopyright: ...", "6.9.11-60", "Q16"},
		{"Version: ImageMagick 7.1.1-21 Q16-HDRI aarch64 21553", "7.1.1-21", "Q16-HDRI"},
		{"ImageMagick 7.0.10-61 Q8 x86_64 2021-01-10", "7.0.10-61", "Q8"},
	}
	for _, c := range cases {
		v, err := ParseBanner(c.in)
		if err != nil {
			t.Fatalf("ParseBanner(%q): %v", c.in, err)
		}
		want := MustParse(c.version)
		if !v.Equals(want) || v.Quantum != c.quantum {
			t.Fatalf("ParseBanner(%q) = %v; want %v %s", c.in, v, want, c.quantum)
		}
	}
	if _, err := ParseBanner("GraphicsMagick 1.3.38"); err == nil {
		t.Fatalf("expected error for non-ImageMagick banner")
	}
}

func TestGT(t *testing.T) {
	cases := []struct {
		a    string
		b    string
		want bool // a > b
	}{
		{"7.0.0-0", "6.9.12-98", true},
		{"6.9.12-98", "6.9.12-9", true},
		{"6.7.7-8", "6.7.7-8", false},
		{"6.7.7-7", "6.7.8-0", false},
		{"6.10.0", "6.9.99-99", true},
	}
	for _, c := range cases {
		a := MustParse(c.a)
		b := MustParse(c.b)
		if a.GT(b) != c.want {
			t.Fatalf("GT: %q > %q = %v; want %v", c.a, c.b, a.GT(b), c.want)
		}
	}
}

func TestOrdering(t *testing.T) {
	a := MustParse("6.7.6-7")
	b := MustParse("6.7.7-7")
	if !a.Less(b) || !b.AtLeast(a) || b.Less(a) {
		t.Fatalf("ordering mismatch between %v and %v", a, b)
	}
}
