package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const maxDomainLength = 253

// KnownTLDs 是可以从输入中直接识别出来的后缀。
var KnownTLDs = map[string]struct{}{
	"com": {}, "io": {}, "ai": {}, "co": {}, "net": {}, "org": {}, "dev": {}, "app": {}, "xyz": {},
	"me": {}, "info": {}, "biz": {}, "us": {}, "uk": {}, "de": {}, "fr": {}, "es": {}, "it": {},
	"nl": {}, "ru": {}, "cn": {}, "jp": {}, "kr": {}, "in": {}, "br": {}, "au": {}, "ca": {},
	"mx": {}, "tech": {}, "online": {}, "site": {}, "store": {}, "shop": {}, "blog": {},
	"cloud": {}, "pro": {},
}

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// IsValid reports whether name satisfies the label grammar and the overall length limit.
func IsValid(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxDomainLength {
		return false
	}
	if strings.ContainsAny(name, " \t") {
		return false
	}
	return domainPattern.MatchString(strings.ToLower(name))
}

// IsKnownTLD reports whether tld is in KnownTLDs.
func IsKnownTLD(tld string) bool {
	_, ok := KnownTLDs[strings.ToLower(tld)]
	return ok
}

// Normalize validates raw and splits off a recognised TLD.
// tld is empty when the final label is not a known TLD; base is then the whole name.
func Normalize(raw string) (base, tld string, err error) {
	name := strings.TrimSpace(raw)
	if !IsValid(name) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	name = strings.ToLower(name)

	if i := strings.LastIndex(name, "."); i > 0 {
		if suffix := name[i+1:]; IsKnownTLD(suffix) {
			return name[:i], suffix, nil
		}
	}
	return name, "", nil
}
