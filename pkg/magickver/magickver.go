// Package magickver parses and orders ImageMagick release versions.
//
// ImageMagick numbers releases as major.minor.patch-release (6.9.12-98).
// The dash suffix is a patch level, not a pre-release tag, so semantic
// version libraries order these incorrectly.
package magickver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is an ImageMagick release.
type Version struct {
	Major   int
	Minor   int
	Patch   int
	Release int
	// Quantum is the build depth such as "Q16" or "Q16-HDRI"; informational only.
	Quantum string
}

func (v Version) String() string {
	core := fmt.Sprintf("%d.%d.%d-%d", v.Major, v.Minor, v.Patch, v.Release)
	if v.Quantum != "" {
		core += " " + v.Quantum
	}
	return core
}

// Equals compares releases and ignores the quantum.
func (v Version) Equals(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch && v.Release == o.Release
}

// GT returns true if v is a later release than o.
func (v Version) GT(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	if v.Patch != o.Patch {
		return v.Patch > o.Patch
	}
	return v.Release > o.Release
}

// AtLeast returns true if v is o or later.
func (v Version) AtLeast(o Version) bool {
	return v.Equals(o) || v.GT(o)
}

// Less returns true if v is older than o.
func (v Version) Less(o Version) bool {
	return !v.AtLeast(o)
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Parse parses "6.9.12-98", "7.1.1" or "7.1.1-21 Q16-HDRI".
func Parse(s string) (Version, error) {
	orig := s
	s = strings.TrimSpace(s)
	var quantum string
	if idx := strings.IndexAny(s, " \t"); idx >= 0 {
		quantum = strings.TrimSpace(s[idx+1:])
		if f := strings.Fields(quantum); len(f) > 0 {
			quantum = f[0]
		}
		s = s[:idx]
	}
	release := 0
	if idx := strings.Index(s, "-"); idx >= 0 {
		r, err := strconv.Atoi(s[idx+1:])
		if err != nil {
			return Version{}, fmt.Errorf("invalid release number in %q", orig)
		}
		release = r
		s = s[:idx]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid ImageMagick version (need major.minor.patch): %q", orig)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, errors.New("invalid version component " + strconv.Quote(p))
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Release: release, Quantum: quantum}, nil
}

var bannerRe = regexp.MustCompile(`ImageMagick\s+(\d+\.\d+\.\d+(?:-\d+)?)(?:\s+(Q\d+(?:-HDRI)?))?`)

// ParseBanner extracts the version from `convert -version` output or from
// the string reported by the MagickWand library.
func ParseBanner(banner string) (Version, error) {
	m := bannerRe.FindStringSubmatch(banner)
	if m == nil {
		return Version{}, fmt.Errorf("no ImageMagick version found in %q", firstLine(banner))
	}
	v, err := Parse(m[1])
	if err != nil {
		return Version{}, err
	}
	v.Quantum = m[2]
	return v, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
