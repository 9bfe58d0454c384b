// Package glossary parses user-supplied term rules and enforces them on
// translated text.
package glossary

import (
	"regexp"
	"strings"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// Separator splits a rule line into source and target terms.
const Separator = "=>"

var lineBreaks = regexp.MustCompile(`\r\n|\r|\n`)

// Rule maps a source term to a target term. Source == Target means the
// term must survive translation verbatim.
type Rule struct {
	Source string
	Target string
}

// Preserve reports whether r is a preservation rule.
func (r Rule) Preserve() bool {
	return r.Source == r.Target
}

// Glossary is an ordered rule list. Order is definition order.
type Glossary struct {
	Rules []Rule
}

// Parse turns free text into a glossary. Blank lines and lines with an
// empty source term are skipped; nothing here fails.
func Parse(text string) Glossary {
	var g Glossary
	index := map[string]int{}

	for _, line := range lineBreaks.Split(strings.TrimSpace(text), -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		source, target := line, line
		if before, after, ok := strings.Cut(line, Separator); ok {
			source = strings.TrimSpace(before)
			target = strings.TrimSpace(after)
		}
		if source == "" {
			continue
		}

		// A repeated source keeps its first position and takes the last target.
		if i, ok := index[source]; ok {
			g.Rules[i].Target = target
			continue
		}
		index[source] = len(g.Rules)
		g.Rules = append(g.Rules, Rule{Source: source, Target: target})
	}

	return g
}

// Empty reports whether the glossary has no rules.
func (g Glossary) Empty() bool {
	return len(g.Rules) == 0
}

// Map returns the rules as a source -> target mapping.
func (g Glossary) Map() map[string]string {
	m := make(map[string]string, len(g.Rules))
	for _, r := range g.Rules {
		m[r.Source] = r.Target
	}
	return m
}

// Prompt renders the rules as a hint block for LLM prompts.
func (g Glossary) Prompt() string {
	if g.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Glossary (do not translate source => target):\n")
	for _, r := range g.Rules {
		b.WriteString(r.Source)
		b.WriteString(" => ")
		b.WriteString(r.Target)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Apply enforces the glossary on every text field of every item and returns
// new items; the input is not modified.
func Apply(items []domain.TranslationItem, g Glossary) []domain.TranslationItem {
	out := make([]domain.TranslationItem, len(items))
	copy(out, items)
	if g.Empty() {
		return out
	}

	replacers := compile(g)
	for i := range out {
		for _, field := range out[i].Fields() {
			for _, r := range replacers {
				*field = r.apply(*field)
			}
		}
	}
	return out
}

type replacer struct {
	match *regexp.Regexp
	with  string
}

func (r replacer) apply(s string) string {
	return r.match.ReplaceAllLiteralString(s, r.with)
}

// compile builds one case-insensitive matcher per rule. A preservation rule
// matches its target and restores the source casing; a substitution rule
// matches its source and writes the target.
func compile(g Glossary) []replacer {
	out := make([]replacer, 0, len(g.Rules))
	for _, r := range g.Rules {
		find := r.Source
		if r.Preserve() {
			find = r.Target
		}
		out = append(out, replacer{
			match: regexp.MustCompile("(?i)" + regexp.QuoteMeta(find)),
			with:  r.Target,
		})
	}
	return out
}
