package prompts

import "github.com/salmonumbrella/brainstorm-cli/internal/methods"

// Template holds the two prompts of a method.
type Template struct {
	Initial   string
	Expansion string
}

// Bullet formatting instructions shared by most templates.
const (
	tenBullets  = "Format your response as a bullet list with exactly 10 items, each starting with \"- \".\nDo not include numbers, titles, or bold text."
	fiveBullets = "Format your response as a bullet list with exactly 5 items, each starting with \"- \"."
)

var templates = map[methods.ID]Template{
	methods.BigMindMapping: {
		Initial: `You are a creative brainstorming assistant specializing in Big Mind Mapping methodology. Your task is to generate 10 diverse, innovative initial ideas based on the user's topic.

User's Topic: {userInput}

Generate 10 initial ideas that:
- Cover different aspects and angles of the topic
- Are specific and actionable
- Show creative and unconventional thinking
- Are diverse and non-redundant
- Each idea should be a complete thought (2-3 sentences)

` + tenBullets,
		Expansion: `You are an expert at expanding ideas using the Big Mind Mapping technique. Your task is to take one idea and expand it into 5 related but distinct sub-ideas.

Original Idea: {idea}

Generate 5 expanded ideas that:
- Build upon or branch from the original idea
- Explore different dimensions (implementation, impact, variations, applications, challenges)
- Maintain the same level of detail as the original
- Are creative and push boundaries
- Each should be a complete thought (2-3 sentences)

` + fiveBullets + "\nDo not include numbers, titles, or bold text.",
	},

	methods.ReverseBrainstorming: {
		Initial: `You are a strategic thinker specializing in Reverse Brainstorming. Instead of solving the problem, you'll identify ways to CAUSE or WORSEN it.

User's Goal/Problem: {userInput}

Generate 10 ways to:
- Make this problem worse
- Prevent this goal from being achieved
- Create obstacles and barriers
- Cause the opposite of what's desired
- Think like a saboteur

Each point should explain HOW it would cause problems (2-3 sentences).

` + tenBullets,
		Expansion: `You are now reversing the negative approach to find innovative solutions.

Negative Approach: {idea}

For this negative approach, generate 5 solutions that:
- Directly counter or prevent this negative outcome
- Turn the weakness into a strength
- Create safeguards against this problem
- Find opportunities in addressing this challenge
- Be specific and implementable

Each solution should be actionable (2-3 sentences).

` + fiveBullets + "\nDo not include numbers, titles, or bold text.",
	},

	methods.RoleStorming: {
		Initial: `You are a master of perspective-taking in Role Storming brainstorming. You will analyze the topic from 10 different roles/personas.

Topic: {userInput}

Generate ideas from these 10 perspectives:
1. A 5-year-old child
2. A tech entrepreneur
3. An environmental activist
4. A retired teacher
5. A professional athlete
6. An artist/creative
7. A scientist/researcher
8. A politician
9. Someone from 100 years ago
10. Someone from 100 years in the future

For each role, provide their unique take on the topic (2-3 sentences).

Format your response as a bullet list with exactly 10 items, each starting with "- [Role]:" followed by their perspective.`,
		Expansion: `You are deeply embodying a specific role to generate detailed insights.

Role: {role}
Topic: {originalTopic}
Initial Perspective: {idea}

As this role, generate 5 detailed ideas that:
- Reflect this role's values, experiences, and worldview
- Use language and concepts this role would use
- Consider resources and constraints this role faces
- Show both opportunities and challenges from this viewpoint
- Be specific to this role's unique position

Each idea should be well-developed (2-3 sentences).

` + fiveBullets,
	},

	methods.Scamper: {
		Initial: `You are a SCAMPER method expert. Analyze the given topic using all 7 SCAMPER techniques.

Topic: {userInput}

Apply each SCAMPER technique:
- SUBSTITUTE: What can be substituted?
- COMBINE: What can be combined or integrated?
- ADAPT: What can be adapted or adjusted?
- MODIFY/MAGNIFY: What can be emphasized or enhanced?
- PUT TO OTHER USES: What other applications are possible?
- ELIMINATE: What can be removed or simplified?
- REVERSE/REARRANGE: What can be reversed or reordered?

Provide 1-2 specific ideas for each technique (2-3 sentences each).

Format as a bullet list with headers like "- SUBSTITUTE:" followed by the ideas.`,
		Expansion: `You are exploring one SCAMPER technique in depth.

Technique: {technique}
Original Topic: {originalTopic}
Initial Idea: {idea}

Generate 5 advanced applications of this {technique} approach that:
- Push the boundaries of what's possible
- Consider multiple industries or contexts
- Include both incremental and radical changes
- Address potential implementation challenges
- Show concrete examples or scenarios

Each application should be detailed (2-3 sentences).

` + fiveBullets,
	},

	methods.SixThinkingHats: {
		Initial: `You are facilitating a Six Thinking Hats brainstorming session. Analyze the topic from all six perspectives.

Topic: {userInput}

Apply each thinking hat:
- WHITE HAT (Facts): What are the facts, data, and information available?
- RED HAT (Emotions): What are the feelings, hunches, and intuitions?
- BLACK HAT (Caution): What are the risks, problems, and why it might not work?
- YELLOW HAT (Benefits): What are the benefits, advantages, and why it will work?
- GREEN HAT (Creativity): What are creative alternatives and new ideas?
- BLUE HAT (Process): How should we think about this? What's the big picture?

Provide 1-2 insights for each hat (2-3 sentences each).

Format as a bullet list with headers like "- WHITE HAT:" followed by the insights.`,
		Expansion: `You are conducting deep analysis with one specific thinking hat.

Hat Type: {hatType}
Topic: {originalTopic}
Initial Insight: {idea}

Wearing only the {hatType}, generate 5 detailed observations that:
- Stay strictly within this hat's perspective
- Dig deeper into implications and connections
- Consider short-term and long-term aspects
- Include specific examples or scenarios
- Build upon the initial insight

Each observation should be thorough (2-3 sentences).

` + fiveBullets,
	},

	methods.Starbursting: {
		Initial: `You are a master questioner using the Starbursting technique. Generate comprehensive questions about the topic using the 5W1H framework.

Topic: {userInput}

Generate questions for each category:
- WHO: Questions about people, stakeholders, users, teams
- WHAT: Questions about features, components, outcomes, requirements
- WHERE: Questions about locations, markets, contexts, environments
- WHEN: Questions about timing, schedules, milestones, deadlines
- WHY: Questions about purpose, motivation, benefits, rationale
- HOW: Questions about methods, processes, implementation, measurement

Provide 2 thought-provoking questions for each category.

Format as a bullet list with headers like "- WHO:" followed by the questions.`,
		Expansion: `You are providing comprehensive answers to important questions about the topic.

Original Topic: {originalTopic}
Question Category: {category}
Specific Question: {idea}

Provide 5 detailed answers/perspectives that:
- Address different aspects of the question
- Consider various stakeholder viewpoints
- Include both conventional and innovative approaches
- Identify potential challenges and opportunities
- Suggest concrete next steps or implications

Each answer should be substantive (2-3 sentences).

` + fiveBullets,
	},
}

// Kind selects the initial or expansion prompt of a method.
type Kind string

const (
	KindInitial   Kind = "initial"
	KindExpansion Kind = "expansion"
)

// Get returns the template text of one kind for a method.
func Get(method methods.ID, kind Kind) (string, error) {
	tpl, ok := templates[method]
	if !ok {
		return "", methods.UnknownError{ID: string(method)}
	}
	if kind == KindExpansion {
		return tpl.Expansion, nil
	}
	return tpl.Initial, nil
}
