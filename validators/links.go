package validators

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	"courses-backend/utils"
)

const DefaultVideoHost = "youtube.com"

const RuleForbiddenLink = "forbidden link"

// After http(s):// the whole authority is the host, IP literals included.
// A www. token runs to the next separator. Bare tokens need an alphabetic TLD
// so that version numbers are not links.
var hostPattern = regexp.MustCompile(`(?i)https?://([^\s/?#]+)|(www\.[^\s/?#]+)|((?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,})`)

// LinksValidator rejects text fields that mention hosts outside the allow list.
type LinksValidator struct {
	allowed []string
}

func NewLinksValidator(hosts ...string) *LinksValidator {
	var allowed []string
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed = append(allowed, h)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{DefaultVideoHost}
	}
	return &LinksValidator{allowed: allowed}
}

// Validate checks every field and reports the first offending one, in key order.
func (v *LinksValidator) Validate(fields map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		for _, host := range Hosts(fields[name]) {
			if !v.isAllowed(host) {
				return &utils.ValidationFailed{Field: name, Rule: RuleForbiddenLink}
			}
		}
	}
	return nil
}

func (v *LinksValidator) isAllowed(host string) bool {
	for _, allowed := range v.allowed {
		if strings.Contains(host, allowed) {
			return true
		}
	}
	return false
}

// Hosts returns the lowercase hosts found in text, in order of appearance.
func Hosts(text string) []string {
	matches := hostPattern.FindAllStringSubmatch(text, -1)
	hosts := make([]string, 0, len(matches))
	for _, m := range matches {
		for _, group := range m[1:] {
			if group != "" {
				hosts = append(hosts, normalizeHost(group))
				break
			}
		}
	}
	return hosts
}

// normalizeHost drops userinfo, port and trailing punctuation from an authority.
func normalizeHost(authority string) string {
	host := strings.ToLower(authority)
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end >= 0 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.TrimRight(host, ".,;!)'\"")
}
