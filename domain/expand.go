package domain

import "strings"

const DefaultTLD = "com"

// NormalizeTLDs trims, lowercases and strips leading dots; empty entries are dropped.
func NormalizeTLDs(tlds []string) []string {
	out := make([]string, 0, len(tlds))
	for _, t := range tlds {
		t = strings.TrimLeft(strings.ToLower(strings.TrimSpace(t)), ".")
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// cleanName removes every space and tab, not only the surrounding ones.
func cleanName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "\t", "")
}

// Expand turns raw names and a TLD selection into work items.
// Invalid entries are dropped silently; see ExpandReport for the rejected list.
func Expand(names, tlds []string) []WorkItem {
	items, _ := ExpandReport(names, tlds)
	return items
}

// ExpandReport is Expand plus the raw entries that produced no work item.
// Blank lines and # comments are not reported.
func ExpandReport(names, tlds []string) ([]WorkItem, []string) {
	tlds = NormalizeTLDs(tlds)

	var (
		items    []WorkItem
		rejected []string
	)
	for _, raw := range names {
		name := cleanName(raw)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		base, existing, err := Normalize(name)
		if err != nil || base == "" {
			rejected = append(rejected, raw)
			continue
		}

		before := len(items)
		switch {
		case existing != "":
			items = appendValid(items, base, existing)
		case len(tlds) > 0:
			for _, tld := range tlds {
				items = appendValid(items, base, tld)
			}
		default:
			items = appendValid(items, base, DefaultTLD)
		}
		if len(items) == before {
			rejected = append(rejected, raw)
		}
	}
	return items, rejected
}

func appendValid(items []WorkItem, base, tld string) []WorkItem {
	full := base + "." + tld
	if !IsValid(full) {
		return items
	}
	return append(items, WorkItem{FullDomain: full, BaseName: base, TLD: tld})
}
