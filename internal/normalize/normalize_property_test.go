//go:build property
// +build property

package normalize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var longRun = regexp.MustCompile(`\s{3,}`)

// fragments are stitched together into small templates so generated input
// exercises tags, attribute operators and whitespace runs at once.
var fragments = []string{
	"<div", ">", "</div>", " ", "  ", "   ", "\n", "\t\t\n",
	` ng-if="`, ` class="`, `"`, "a", "b", "|", "||", "&&", "===", "!==", "==",
	"?", ":", "'k':", "{{", "}}", "<!--", "-->", "/>",
	"!", "=", "&", "'", "\t", " ! ", " = ", "\t=", "=\t", " | ",
}

func genTemplate() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(fragments)-1)).Map(func(idx []int) string {
		var b strings.Builder
		for _, i := range idx {
			b.WriteString(fragments[i])
		}
		return b.String()
	})
}

func TestNormalizerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	n := New()

	properties.Property("normalizing twice equals normalizing once", prop.ForAll(
		func(input string) bool {
			once := n.Normalize(input)
			return n.Normalize(once) == once
		},
		genTemplate(),
	))

	properties.Property("no whitespace run of three or more survives", prop.ForAll(
		func(input string) bool {
			return !longRun.MatchString(n.Normalize(input))
		},
		genTemplate(),
	))

	properties.Property("output never grows", prop.ForAll(
		func(input string) bool {
			return len(n.Normalize(input)) <= len(input)
		},
		genTemplate(),
	))

	properties.Property("short whitespace runs outside tags are preserved", prop.ForAll(
		func(word string, gap int) bool {
			spaces := strings.Repeat(" ", gap)
			input := word + spaces + word
			return n.Normalize(input) == input
		},
		gen.AlphaString(),
		gen.IntRange(1, 2),
	))

	properties.TestingRun(t)
}
