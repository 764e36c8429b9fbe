// Package methods holds the closed catalogue of brainstorming methods.
package methods

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ID identifies a brainstorming method.
type ID string

const (
	BigMindMapping       ID = "big-mind-mapping"
	ReverseBrainstorming ID = "reverse-brainstorming"
	RoleStorming         ID = "role-storming"
	Scamper              ID = "scamper"
	SixThinkingHats      ID = "six-thinking-hats"
	Starbursting         ID = "starbursting"
)

// Default is the method used when none is given.
const Default = BigMindMapping

// Order is the display order of the catalogue.
var Order = []ID{
	BigMindMapping,
	ReverseBrainstorming,
	RoleStorming,
	Scamper,
	SixThinkingHats,
	Starbursting,
}

// Method describes one brainstorming technique.
type Method struct {
	ID          ID       `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	WhenToUse   string   `json:"when_to_use" yaml:"when_to_use"`
	Examples    []string `json:"examples" yaml:"examples"`
}

// UnknownError is returned when a method id is not in the catalogue.
type UnknownError struct{ ID string }

func (e UnknownError) Error() string {
	return fmt.Sprintf("unknown brainstorming method: %s", e.ID)
}

var catalogue = map[ID]Method{
	BigMindMapping: {
		ID:          BigMindMapping,
		Name:        "Big Mind Mapping",
		Description: "Explore ideas across a wide scope to gather the maximum number of creative solutions.",
		WhenToUse:   "Perfect when you are lost and want to gather the maximum number of ideas",
		Examples: []string{
			"Brainstorming product features for a new app",
			"Exploring business model possibilities",
			"Generating content ideas for a campaign",
		},
	},
	ReverseBrainstorming: {
		ID:          ReverseBrainstorming,
		Name:        "Reverse Brainstorming",
		Description: "Identify ways to cause problems to reveal potential issues and innovative solutions.",
		WhenToUse:   "Great for spotting potential issues and coming up with innovative solutions",
		Examples: []string{
			"Finding ways to improve customer retention",
			"Identifying security vulnerabilities",
			"Preventing project failures",
		},
	},
	RoleStorming: {
		ID:          RoleStorming,
		Name:        "Role Storming",
		Description: "Adopt different perspectives to generate diverse insights and creative solutions.",
		WhenToUse:   "Excellent for gathering insights from different viewpoints and stakeholders",
		Examples: []string{
			"Designing user experiences from different personas",
			"Solving problems from various stakeholder perspectives",
			"Creating inclusive solutions",
		},
	},
	Scamper: {
		ID:          Scamper,
		Name:        "SCAMPER",
		Description: "Transform ideas systematically using Substitute, Combine, Adapt, Modify, Put to other use, Eliminate, Reverse.",
		WhenToUse:   "Ideal for improving existing ideas or products through systematic transformation",
		Examples: []string{
			"Improving existing products or services",
			"Innovating on current processes",
			"Finding new uses for existing resources",
		},
	},
	SixThinkingHats: {
		ID:          SixThinkingHats,
		Name:        "Six Thinking Hats",
		Description: "Examine problems from six perspectives: Data, Emotions, Risks, Benefits, Creativity, and Process.",
		WhenToUse:   "Perfect for comprehensive analysis and balanced decision-making",
		Examples: []string{
			"Making important business decisions",
			"Evaluating project proposals",
			"Analyzing complex problems holistically",
		},
	},
	Starbursting: {
		ID:          Starbursting,
		Name:        "Starbursting",
		Description: "Generate comprehensive questions using Who, What, Where, When, Why, and How for thorough exploration.",
		WhenToUse:   "Excellent for comprehensive topic exploration and understanding requirements",
		Examples: []string{
			"Planning new projects or initiatives",
			"Understanding customer needs deeply",
			"Exploring market opportunities",
		},
	},
}

// situations maps a situation keyword to the methods suited for it.
var situations = map[string][]ID{
	"exploration":  {BigMindMapping, Starbursting},
	"problems":     {ReverseBrainstorming, SixThinkingHats},
	"perspectives": {RoleStorming, SixThinkingHats},
	"improvement":  {Scamper, ReverseBrainstorming},
	"analysis":     {SixThinkingHats, Starbursting},
	"creativity":   {BigMindMapping, Scamper, RoleStorming},
}

// ParseID validates s against the catalogue.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalogue[id]; !ok {
		return "", UnknownError{ID: s}
	}
	return id, nil
}

// Valid reports whether id is a known method.
func (id ID) Valid() bool {
	_, ok := catalogue[id]
	return ok
}

// Name returns the display name of the method, or "General" when unknown.
func (id ID) Name() string {
	if m, ok := catalogue[id]; ok {
		return m.Name
	}
	return "General"
}

// Get returns the method with the given id.
func Get(id ID) (Method, bool) {
	m, ok := catalogue[id]
	return m, ok
}

// All returns every method in display order.
func All() []Method {
	out := make([]Method, 0, len(Order))
	for _, id := range Order {
		out = append(out, catalogue[id])
	}
	return out
}

// ByName finds a method by its display name, ignoring case.
func ByName(name string) (Method, bool) {
	for _, id := range Order {
		m := catalogue[id]
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, true
		}
	}
	return Method{}, false
}

// Lookup resolves an id, an exact display name, or a fuzzy name match, in that order.
func Lookup(query string) (Method, bool) {
	if id, err := ParseID(query); err == nil {
		return catalogue[id], true
	}
	if m, ok := ByName(query); ok {
		return m, true
	}
	matches := Search(query)
	if len(matches) == 0 {
		return Method{}, false
	}
	return matches[0], true
}

// Search fuzzy-matches query against method names and ids, best match first.
func Search(query string) []Method {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	all := All()
	haystack := make([]string, len(all))
	for i, m := range all {
		haystack[i] = m.Name + " " + string(m.ID)
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]Method, 0, len(matches))
	for _, match := range matches {
		out = append(out, all[match.Index])
	}
	return out
}

// ForSituation returns the methods recommended for any of the keywords,
// de-duplicated in first-seen order. Unknown keywords are ignored.
func ForSituation(keywords []string) []Method {
	seen := make(map[ID]bool)
	var out []Method
	for _, kw := range keywords {
		for _, id := range situations[strings.ToLower(strings.TrimSpace(kw))] {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, catalogue[id])
		}
	}
	return out
}

// Situations lists the keywords understood by ForSituation.
func Situations() []string {
	return []string{"exploration", "problems", "perspectives", "improvement", "analysis", "creativity"}
}

// Random picks a method using r. A nil r uses the global source.
func Random(r *rand.Rand) Method {
	var i int
	if r != nil {
		i = r.Intn(len(Order))
	} else {
		i = rand.Intn(len(Order))
	}
	return catalogue[Order[i]]
}
