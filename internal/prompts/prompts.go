// Package prompts builds the text sent to the model for each brainstorming step.
package prompts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/salmonumbrella/brainstorm-cli/internal/methods"
)

const (
	// IdeaSystemPrompt frames structured idea generation.
	IdeaSystemPrompt = "You are an expert brainstorming facilitator. Always follow the exact format requested and provide high-quality, creative ideas."
	// ChatSystemPrompt frames free conversation.
	ChatSystemPrompt = "You are a helpful AI assistant. Provide clear, informative, and conversational responses. Do not use any brainstorming formats or structures."

	// ContextMarker opens a prompt that already carries the conversation.
	ContextMarker = "IMPORTANT CONTEXT - Previous conversation:"
)

// ErrNoTag is returned when an idea carries no tag for the method.
var ErrNoTag = errors.New("idea has no method tag")

// Context is the method-specific data an expansion prompt needs.
// It is one of GenericContext, RoleContext, ScamperContext, HatsContext
// or StarburstingContext.
type Context interface {
	apply(vars map[string]string)
}

type (
	// GenericContext carries nothing beyond the idea itself.
	GenericContext struct{}
	// RoleContext names the persona of a role-storming idea.
	RoleContext struct{ Role string }
	// ScamperContext names the SCAMPER technique, upper case.
	ScamperContext struct{ Technique string }
	// HatsContext names the hat, e.g. "WHITE HAT".
	HatsContext struct{ Hat string }
	// StarburstingContext names the 5W1H category, upper case.
	StarburstingContext struct{ Category string }
)

func (GenericContext) apply(map[string]string)          {}
func (c RoleContext) apply(v map[string]string)         { v["role"] = c.Role }
func (c ScamperContext) apply(v map[string]string)      { v["technique"] = c.Technique }
func (c HatsContext) apply(v map[string]string)         { v["hatType"] = c.Hat }
func (c StarburstingContext) apply(v map[string]string) { v["category"] = c.Category }

// Fallback values for expansion variables when the idea has no tag.
var variableDefaults = map[string]string{
	"role":      "the perspective described in the idea",
	"technique": "SCAMPER",
	"hatType":   "thinking hat",
	"category":  "question",
}

var (
	roleTag      = regexp.MustCompile(`\[([^\]]+)\]:`)
	techniqueTag = regexp.MustCompile(`(?i)^(SUBSTITUTE|COMBINE|ADAPT|MODIFY/MAGNIFY|MODIFY|MAGNIFY|PUT TO OTHER USES|ELIMINATE|REVERSE/REARRANGE|REVERSE|REARRANGE):`)
	hatTag       = regexp.MustCompile(`(?i)^(WHITE|RED|BLACK|YELLOW|GREEN|BLUE) HAT:`)
	categoryTag  = regexp.MustCompile(`(?i)^(WHO|WHAT|WHERE|WHEN|WHY|HOW):`)
)

// stripBullet accepts ideas with or without their "- " marker.
func stripBullet(idea string) string {
	idea = strings.TrimSpace(idea)
	if strings.HasPrefix(idea, "-") {
		idea = strings.TrimSpace(idea[1:])
	}
	return idea
}

// ExtractRole reads the "[Role]:" tag of an idea.
func ExtractRole(idea string) (RoleContext, error) {
	m := roleTag.FindStringSubmatch(stripBullet(idea))
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return RoleContext{}, fmt.Errorf("role: %w", ErrNoTag)
	}
	return RoleContext{Role: strings.TrimSpace(m[1])}, nil
}

// ExtractTechnique reads the leading SCAMPER technique of an idea.
func ExtractTechnique(idea string) (ScamperContext, error) {
	m := techniqueTag.FindStringSubmatch(stripBullet(idea))
	if m == nil {
		return ScamperContext{}, fmt.Errorf("technique: %w", ErrNoTag)
	}
	return ScamperContext{Technique: strings.ToUpper(m[1])}, nil
}

// ExtractHat reads the leading thinking hat of an idea.
func ExtractHat(idea string) (HatsContext, error) {
	m := hatTag.FindStringSubmatch(stripBullet(idea))
	if m == nil {
		return HatsContext{}, fmt.Errorf("hat: %w", ErrNoTag)
	}
	return HatsContext{Hat: strings.ToUpper(m[1]) + " HAT"}, nil
}

// ExtractCategory reads the leading 5W1H category of an idea.
func ExtractCategory(idea string) (StarburstingContext, error) {
	m := categoryTag.FindStringSubmatch(stripBullet(idea))
	if m == nil {
		return StarburstingContext{}, fmt.Errorf("category: %w", ErrNoTag)
	}
	return StarburstingContext{Category: strings.ToUpper(m[1])}, nil
}

// ContextFor selects the context variant for method and fills it from idea.
// On extraction failure the generic variant is returned with the error.
func ContextFor(method methods.ID, idea string) (Context, error) {
	var (
		c   Context
		err error
	)
	switch method {
	case methods.RoleStorming:
		c, err = ExtractRole(idea)
	case methods.Scamper:
		c, err = ExtractTechnique(idea)
	case methods.SixThinkingHats:
		c, err = ExtractHat(idea)
	case methods.Starbursting:
		c, err = ExtractCategory(idea)
	default:
		return GenericContext{}, nil
	}
	if err != nil {
		return GenericContext{}, err
	}
	return c, nil
}

// Request describes one idea-generation prompt.
type Request struct {
	Method       methods.ID
	UserInput    string
	Context      string
	PreviousIdea string
	ExpandLevel  int
}

// Build renders the prompt for req. Input that already opens with the
// conversation marker is sent as is.
func Build(req Request) (string, error) {
	if strings.Contains(req.UserInput, ContextMarker) {
		return req.UserInput, nil
	}

	kind := KindInitial
	if req.ExpandLevel > 0 {
		kind = KindExpansion
	}
	tpl, err := Get(req.Method, kind)
	if err != nil {
		return "", err
	}

	originalTopic := req.Context
	if originalTopic == "" {
		originalTopic = req.UserInput
	}
	vars := map[string]string{
		"userInput":     req.UserInput,
		"context":       req.Context,
		"idea":          req.PreviousIdea,
		"originalTopic": originalTopic,
	}
	for k, v := range variableDefaults {
		vars[k] = v
	}
	if req.PreviousIdea != "" {
		// A missing tag keeps the defaults.
		c, _ := ContextFor(req.Method, req.PreviousIdea)
		c.apply(vars)
	}
	return Format(tpl, vars), nil
}

// Format replaces every {key} in template with its value.
func Format(template string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// MethodSwitch asks the model to carry the session over to another method.
func MethodSwitch(previous, next methods.ID, context, input string) (string, error) {
	tpl, err := Get(next, KindInitial)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are switching from %s to %s brainstorming method while maintaining context.

Previous Context: %s
User's Current Focus: %s

Now apply %s to continue the brainstorming session. Acknowledge the switch briefly, then proceed with the new method's approach.

%s`, previous.Name(), next.Name(), context, input, next.Name(),
		Format(tpl, map[string]string{"userInput": input})), nil
}

// WithHistory wraps input in the prior conversation. Without history the
// input is returned unchanged.
func WithHistory(history, methodName, input string) string {
	if strings.TrimSpace(history) == "" {
		return input
	}
	return ContextMarker + "\n\n" + history + "\n\n---\n\n" +
		"Now, using the " + methodName + " method, respond to this request:\n" + input + "\n\n" +
		"IMPORTANT: When the user refers to \"the previous idea\" or similar references, they are referring to the ideas discussed in the conversation above. Make sure to directly reference and analyze those specific ideas."
}

// ChatContext frames prior conversation for a chat request.
func ChatContext(history string) string {
	if strings.TrimSpace(history) == "" {
		return ""
	}
	return "Previous conversation:\n\n" + history + "\n\n---\n\n"
}

// Summary asks for a markdown summary of a whole session.
func Summary(conversation string) string {
	return `Please provide a comprehensive summary of this brainstorming session. Include:

1. **Session Overview**: What topics were discussed and what brainstorming methods were used
2. **Key Ideas Generated**: The most important and innovative ideas that emerged
3. **Main Insights**: Key insights and patterns that emerged from the discussion
4. **Action Items**: Any concrete next steps or recommendations
5. **Method Effectiveness**: Brief note on which brainstorming methods were most productive

Here's the full conversation:

` + conversation + `

Please format your summary in clear markdown with proper headers and bullet points.`
}
