package prompt

import (
	"strconv"
	"strings"

	"francisco/internal/persona"
)

// block renders items as "<tag>\n- item\n</tag>". Empty input renders as "".
func block(tag string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<" + tag + ">\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

func text(tag, body string) string {
	if body == "" {
		return ""
	}
	return "<" + tag + ">\n" + body + "\n</" + tag + ">"
}

func numbered(tag string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<" + tag + ">\n")
	for i, it := range items {
		b.WriteString(strconv.Itoa(i+1) + ". " + it + "\n")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// wrap joins the non-empty parts inside an outer tag, or returns "" when all
// parts are empty.
func wrap(tag string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "<" + tag + ">\n" + strings.Join(kept, "\n") + "\n</" + tag + ">"
}

func personality(c *persona.Config) string {
	var parts []string
	for _, p := range []string{
		block("personality_traits", c.Personality.Traits),
		block("communication_style", c.Personality.CommunicationStyle),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

func capabilities(c *persona.Config) string {
	return wrap("capabilities",
		block("programming_languages", c.Capabilities.Languages),
		block("frameworks_and_tools", c.Capabilities.Frameworks),
		block("project_types", c.Capabilities.ProjectTypes),
	)
}

func strategy(c *persona.Config) string {
	return wrap("strategy",
		text("approach", c.Strategy.Approach),
		numbered("steps", c.Strategy.Steps),
		block("targets", c.Strategy.Targets),
		block("quality_standards", c.Strategy.QualityStandards),
	)
}

// selfReplicationStrategy is the strategy section under the tag names used
// by self-replicating personas.
func selfReplicationStrategy(c *persona.Config) string {
	return wrap("self_replication_strategy",
		text("approach", c.Strategy.Approach),
		numbered("phases", c.Strategy.Steps),
		block("replication_targets", c.Strategy.Targets),
		block("quality_standards", c.Strategy.QualityStandards),
	)
}

func coreObjectives(c *persona.Config) string {
	return wrap("core_objectives",
		block("primary_goals", c.CoreObjectives.PrimaryGoals),
		block("secondary_goals", c.CoreObjectives.SecondaryGoals),
	)
}

func workingPrinciples(c *persona.Config) string {
	return wrap("working_principles",
		block("code_quality", c.WorkingPrinciples.CodeQuality),
		block("project_structure", c.WorkingPrinciples.ProjectStructure),
		block("development_workflow", c.WorkingPrinciples.DevelopmentWorkflow),
	)
}

func interactionGuidelines(c *persona.Config) string {
	return wrap("interaction_guidelines",
		block("when_invoked", c.InteractionGuidelines.WhenInvoked),
		block("communication", c.InteractionGuidelines.Communication),
	)
}

func successMetrics(c *persona.Config) string {
	items := make([]string, len(c.SuccessMetrics))
	for i, m := range c.SuccessMetrics {
		if m.Name == "" {
			items[i] = m.Description
			continue
		}
		items[i] = m.Name + ": " + m.Description
	}
	return block("success_metrics", items)
}
