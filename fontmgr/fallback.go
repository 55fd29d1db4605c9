package fontmgr

import (
	"fmt"
	"strconv"
	"strings"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/glyphcache/fontload"
)

// FallbackSpec names a fallback font.
type FallbackSpec struct {
	Family string
	Style  string
	Aspect gtfont.Aspect
}

func (spec FallbackSpec) String() string {
	s := spec.Family
	if spec.Style != "" || spec.Aspect.Weight != 0 {
		s += ":" + spec.Style
	}
	if spec.Aspect.Weight != 0 {
		s += ":" + strconv.Itoa(int(spec.Aspect.Weight))
	}
	return s
}

// ParseFallback parses a fallback specification of the form
// "Family[:Style[:Weight]]", e.g. "Noto Sans:Bold" or "Go::700".
func ParseFallback(s string) (FallbackSpec, error) {
	var spec FallbackSpec
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return spec, fmt.Errorf("fontmgr: malformed fallback %q", s)
	}
	spec.Family = strings.TrimSpace(parts[0])
	if spec.Family == "" {
		return spec, fmt.Errorf("fontmgr: fallback %q has no family", s)
	}
	if len(parts) > 1 {
		spec.Style = strings.TrimSpace(parts[1])
		if spec.Style != "" {
			spec.Aspect = fontload.AspectFromStyle(spec.Style)
		}
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		w, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || w < 1 || w > 1000 {
			return spec, fmt.Errorf("fontmgr: fallback %q: weight must be 1…1000", s)
		}
		if spec.Style == "" {
			spec.Aspect = fontload.AspectFromStyle("")
		}
		spec.Aspect.Weight = gtfont.Weight(w)
	}
	return spec, nil
}

// ParseFallbacks parses a comma separated list of fallback specifications.
func ParseFallbacks(list string) ([]FallbackSpec, error) {
	var specs []FallbackSpec
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		spec, err := ParseFallback(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
