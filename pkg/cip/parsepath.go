package cip

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// componentPattern splits a single dotted path component into its base
// (a symbolic name or an "@..." numeric form), an optional [i] or [i-j]
// element spec, and an optional *n count.
var componentPattern = regexp.MustCompile(`^(.*?)(?:\[(\d+)(?:-(\d+))?\])?(?:\*(\d+))?$`)

// ParseInt parses a CIP path numeric term. Explicit 0x/0o/0b prefixes pick
// their base; anything else -- including a string with leading zeros -- is
// parsed as base 10. This is the deliberate departure from
// strconv.ParseInt(s, 0, 64), which treats a leading "0" as an octal
// marker; CIP path numbers never do.
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("cip: empty integer")
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(lower, "0o"):
		return strconv.ParseInt(s[2:], 8, 64)
	case strings.HasPrefix(lower, "0b"):
		return strconv.ParseInt(s[2:], 2, 64)
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}

// ParsePath parses a textual tag path such as "Tag.Sub[3-5]*8" or
// "@6/1/2/12" into a flat segment list, plus the element/count the last
// component requested (if any). elmDefault supplies the count to use for
// the last component when no [i-j]/*n suffix is present; it may be nil.
func ParsePath(s string, elmDefault *int) ([]Segment, *uint32, *int, error) {
	if s == "" {
		return nil, nil, nil, fmt.Errorf("cip: empty path")
	}
	components := strings.Split(s, ".")

	var segs []Segment
	var element *uint32
	var count *int

	for idx, comp := range components {
		last := idx == len(components)-1

		m := componentPattern.FindStringSubmatch(comp)
		if m == nil {
			return nil, nil, nil, fmt.Errorf("cip: malformed path component %q", comp)
		}
		base, idxStr, idxEndStr, countStr := m[1], m[2], m[3], m[4]

		var compElement *uint32
		var compCount *int
		switch {
		case idxStr != "" && idxEndStr != "":
			i, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, nil, nil, err
			}
			j, err := strconv.Atoi(idxEndStr)
			if err != nil {
				return nil, nil, nil, err
			}
			if j < i {
				return nil, nil, nil, fmt.Errorf("cip: inverted element range [%d-%d]", i, j)
			}
			c := j + 1 - i
			compElement = u32p(uint32(i))
			compCount = &c
		case idxStr != "":
			i, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, nil, nil, err
			}
			compElement = u32p(uint32(i))
			if countStr != "" {
				n, err := strconv.Atoi(countStr)
				if err != nil {
					return nil, nil, nil, err
				}
				compCount = &n
			}
		case countStr != "":
			n, err := strconv.Atoi(countStr)
			if err != nil {
				return nil, nil, nil, err
			}
			compCount = &n
		}
		if compCount == nil && elmDefault != nil && last {
			d := *elmDefault
			compCount = &d
		}

		if !last && compCount != nil && *compCount != 1 {
			return nil, nil, nil, fmt.Errorf("cip: only the last path component may specify multiple elements (%q)", comp)
		}

		newSegs, err := parsePathComponent(base)
		if err != nil {
			return nil, nil, nil, err
		}
		segs = append(segs, newSegs...)
		if !last && compElement != nil {
			segs = append(segs, Segment{Element: compElement})
		}

		if last {
			element = compElement
			count = compCount
		}
	}

	if element != nil {
		segs = append(segs, Segment{Element: element})
	}

	return segs, element, count, nil
}

// parsePathComponent parses one "." separated component stripped of its
// [i]/[i-j]/*n suffix: either an "@n/n/n/n" numeric/JSON form or a bare
// symbolic name.
func parsePathComponent(base string) ([]Segment, error) {
	if base == "" {
		return nil, nil
	}
	if !strings.HasPrefix(base, "@") {
		name := base
		return []Segment{{Symbolic: &name}}, nil
	}

	terms := strings.Split(strings.TrimPrefix(base, "@"), "/")
	if len(terms) > 4 {
		return nil, fmt.Errorf("cip: too many terms in %q", base)
	}

	var segs []Segment
	slots := []func(uint32) Segment{
		func(v uint32) Segment { return Segment{Class: u32p(v)} },
		func(v uint32) Segment { return Segment{Instance: u32p(v)} },
		func(v uint32) Segment { return Segment{Attribute: u32p(v)} },
		func(v uint32) Segment { return Segment{Element: u32p(v)} },
	}

	for i, term := range terms {
		if term == "" {
			continue
		}
		if strings.HasPrefix(term, "{") {
			seg, err := parseJSONSegment(term)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			continue
		}
		n, err := ParseInt(term)
		if err != nil {
			return nil, fmt.Errorf("cip: bad numeric term %q in %q: %w", term, base, err)
		}
		segs = append(segs, slots[i](uint32(n)))
	}
	return segs, nil
}

func parseJSONSegment(term string) (Segment, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(term), &raw); err != nil {
		return Segment{}, fmt.Errorf("cip: invalid JSON path segment %q: %w", term, err)
	}
	var seg Segment
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok {
			if k == "symbolic" {
				if s, ok := v.(string); ok {
					seg.Symbolic = &s
				}
			}
			continue
		}
		switch k {
		case "class":
			seg.Class = u32p(uint32(f))
		case "instance":
			seg.Instance = u32p(uint32(f))
		case "attribute":
			seg.Attribute = u32p(uint32(f))
		case "element":
			seg.Element = u32p(uint32(f))
		case "port":
			seg.Port = u32p(uint32(f))
		}
	}
	return seg, nil
}
