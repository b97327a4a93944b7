// Package normalize shrinks template text before minification.
//
// Two passes run over each file in a fixed order. First every run of three
// or more whitespace characters collapses to one space. Then the
// double-quoted attribute values of every start tag have the spacing around
// expression operators removed, so `ng-if="x === y"` becomes
// `ng-if="x===y"`. Text outside attribute values is never touched by the
// second pass.
package normalize

import (
	"regexp"
	"strings"

	"github.com/paulhhowells/tmplpack/internal/markup"
)

var whitespaceRun = regexp.MustCompile(`\s{3,}`)

// Rule is one token-spacing substitution applied to attribute values.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply rewrites value until the rule no longer matches. A single pass
// only strips one whitespace character from each side of a token, so a
// value like "a  |  b" needs a second pass to settle.
func (r Rule) Apply(value string) string {
	for {
		next := r.Pattern.ReplaceAllLiteralString(value, r.Replacement)
		if next == value {
			return value
		}
		value = next
	}
}

// DefaultRules is the ordered operator set. Longer tokens precede their
// prefixes: "||" is only reached after the single-pipe rule, and "!==" and
// "===" run before "==".
func DefaultRules() []Rule {
	return []Rule{
		{Name: "pipe", Pattern: regexp.MustCompile(`\s\|\s`), Replacement: "|"},
		{Name: "or", Pattern: regexp.MustCompile(`\s\|\|\s`), Replacement: "||"},
		{Name: "and", Pattern: regexp.MustCompile(`\s&&\s`), Replacement: "&&"},
		{Name: "strict-not-equal", Pattern: regexp.MustCompile(`\s!==\s`), Replacement: "!=="},
		{Name: "strict-equal", Pattern: regexp.MustCompile(`\s===\s`), Replacement: "==="},
		{Name: "equal", Pattern: regexp.MustCompile(`\s==\s`), Replacement: "=="},
		{Name: "ternary", Pattern: regexp.MustCompile(`\s\?\s`), Replacement: "?"},
		{Name: "colon", Pattern: regexp.MustCompile(`\s:\s`), Replacement: ":"},
		{Name: "quoted-key", Pattern: regexp.MustCompile(`':\s+`), Replacement: "':"},
	}
}

// Normalizer applies the whitespace collapse and attribute rules.
type Normalizer struct {
	rules []Rule
}

// New creates a Normalizer using DefaultRules.
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// NewWithRules creates a Normalizer with a custom ordered rule set.
func NewWithRules(rules []Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Stats reports what a Normalize call changed.
type Stats struct {
	Tags        int
	ValuesFixed int
}

// Normalize returns the normalized form of content.
func (n *Normalizer) Normalize(content string) string {
	out, _ := n.NormalizeWithStats(content)
	return out
}

// NormalizeWithStats is Normalize plus counts of tags seen and attribute
// values rewritten.
func (n *Normalizer) NormalizeWithStats(content string) (string, Stats) {
	var stats Stats

	content = CollapseWhitespace(content)

	tags := markup.StartTags(content)
	if len(tags) == 0 {
		return content, stats
	}
	stats.Tags = len(tags)

	var b strings.Builder
	b.Grow(len(content))

	last := 0
	for _, tag := range tags {
		for _, attr := range tag.Attrs {
			if attr.Quote != '"' || attr.Value == "" {
				continue
			}
			value := n.NormalizeValue(attr.Value)
			if value == attr.Value {
				continue
			}
			b.WriteString(content[last:attr.ValueStart])
			b.WriteString(value)
			last = attr.ValueEnd
			stats.ValuesFixed++
		}
	}
	b.WriteString(content[last:])

	return b.String(), stats
}

// NormalizeValue applies the attribute rules, in order, to one value and
// repeats the whole list until nothing changes. A later rule can expose a
// token an earlier one handles: in "! ==  a" the equal rule leaves "!== a"
// for the strict-not-equal rule. Every rewrite shortens the value, so the
// loop ends.
func (n *Normalizer) NormalizeValue(value string) string {
	for {
		next := value
		for _, rule := range n.rules {
			next = rule.Apply(next)
		}
		if next == value {
			return value
		}
		value = next
	}
}

// CollapseWhitespace replaces runs of three or more whitespace characters
// with a single space. Shorter runs are left for the minifier.
func CollapseWhitespace(content string) string {
	return whitespaceRun.ReplaceAllLiteralString(content, " ")
}
