// Package ideas recovers idea lists from loosely formatted model output.
package ideas

import (
	"regexp"
	"strings"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
)

// Parsed is an idea list tagged with the method that produced it.
type Parsed struct {
	Ideas       []string   `json:"ideas" yaml:"ideas"`
	RawResponse string     `json:"raw_response" yaml:"raw_response"`
	Method      methods.ID `json:"method" yaml:"method"`
}

// ParseBullets returns one idea per "-" bullet, in order. Non-bullet lines
// after the first bullet are continuations of the previous idea; lines
// before it are dropped. Blank lines are ignored.
func ParseBullets(content string) []string {
	if content == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "- "):
			if idea := strings.TrimSpace(stripped[2:]); idea != "" {
				out = append(out, idea)
			}
		case strings.HasPrefix(stripped, "-"):
			if idea := strings.TrimSpace(stripped[1:]); idea != "" {
				out = append(out, idea)
			}
		case stripped != "" && len(out) > 0:
			out[len(out)-1] += " " + stripped
		}
	}
	return out
}

var (
	scamperTag   = regexp.MustCompile(`(?i)^(SUBSTITUTE|COMBINE|ADAPT|MODIFY|MAGNIFY|PUT TO OTHER USES|ELIMINATE|REVERSE|REARRANGE):`)
	hatTag       = regexp.MustCompile(`(?i)^(WHITE|RED|BLACK|YELLOW|GREEN|BLUE) HAT:`)
	starburstTag = regexp.MustCompile(`(?i)^(WHO|WHAT|WHERE|WHEN|WHY|HOW):`)
)

func hasRoleTag(idea string) bool {
	return strings.Contains(idea, "[") && strings.Contains(idea, "]:")
}

// predicate returns the inclusion rule for a method, or nil when the
// method keeps every idea.
func predicate(method methods.ID) func(string) bool {
	switch method {
	case methods.RoleStorming:
		return hasRoleTag
	case methods.Scamper:
		return scamperTag.MatchString
	case methods.SixThinkingHats:
		return hatTag.MatchString
	case methods.Starbursting:
		return starburstTag.MatchString
	default:
		return nil
	}
}

// Extract narrows ideas to those carrying the method's tag. When no idea
// carries it, the full list is returned unchanged.
func Extract(content string, ideas []string, method methods.ID) Parsed {
	out := Parsed{Ideas: ideas, RawResponse: content, Method: method}
	keep := predicate(method)
	if keep == nil {
		return out
	}

	var tagged []string
	for _, idea := range ideas {
		if keep(idea) {
			tagged = append(tagged, idea)
		}
	}
	if len(tagged) > 0 {
		out.Ideas = tagged
	}
	return out
}

// ParseByMethod bullet-parses content and applies the method's extraction rule.
func ParseByMethod(content string, method methods.ID) Parsed {
	return Extract(content, ParseBullets(content), method)
}
