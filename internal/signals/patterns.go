package signals

import "regexp"

// Lexical pattern tables. These are fixed data: extractors match against
// them but never modify them, which keeps every extractor side-effect free.

// gapPatterns mark prompts that omit the context the assistant would need
// (no specific target, no success criteria).
var gapPatterns = compile(
	`^(?:fix|update|change|modify)\s+(?:it|this|that)\b`,
	`^(?:make|do)\s+it\s+(?:work|better)\b`,
	`^(?:improve|optimize)\s+(?:it|this|that)\b`,
	`the\s+(?:error|bug|issue|problem)\s*$`,
	`\bsomehow\b`,
	`\bsomething\s+(?:wrong|broken|weird)`,
	`\bnot\s+working\b`,
	`\bstill\s+broken\b`,
)

// clarityPositive mark structured, explicit prompts.
var clarityPositive = compile(
	`\d+[\.\)]\s`,
	`specifically\b`,
	`exactly\b`,
	`must\s+(?:be|have|include)`,
	`format\s*:`,
	`output\s*:`,
	`<\w+>`,
	`step\s+\d+`,
	`(?:first|then|finally),?\s`,
	`ensure\s+that`,
	`return\s+only`,
	`do\s+not\s+include`,
	`example:`,
	"```",
)

// clarityNegative mark vague or low-effort phrasing.
var clarityNegative = compile(
	`\bmaybe\b`,
	`\bkind\s+of\b`,
	`\bsomething\s+like\b`,
	`\betc\.?\b`,
	`\bwhatever\b`,
	`\bidk\b`,
	`\bi\s+guess\b`,
	`\bstuff\b`,
)

// specificityPatterns mark concrete constraints: counts, bounds, formats.
var specificityPatterns = compile(
	`\d+\s*(?:chars?|characters?|words?|lines?|items?|elements?)`,
	`(?:max|min|at\s+(?:least|most))\s+\d+`,
	`between\s+\d+\s+and\s+\d+`,
	`exactly\s+\d+`,
	`no\s+more\s+than`,
	`format:`,
	`output:`,
	`schema:`,
	`return\s+type`,
	"```\\w+",
	`e\.g\.`,
	`such\s+as:`,
	`including:`,
)

// techniquePatterns group advanced prompting techniques; diversity across
// groups is the interesting measure, not raw match counts.
var techniquePatterns = map[string][]*regexp.Regexp{
	"chain_of_thought": compile(
		`think\s+(?:about\s+this\s+)?step\s+by\s+step`,
		`think\s+through\s+this`,
		`reason\s+(?:through|about)`,
		`walk\s+(?:me\s+)?through`,
	),
	"few_shot": compile(
		`(?:an?\s+)?example:`,
		`for\s+example:`,
		`like\s+this:`,
	),
	"role_prompting": compile(
		`(?:you\s+are|act\s+as)\s+(?:a|an)\s`,
		`as\s+(?:a|an)\s+\w+\s+expert`,
	),
	"structured_output": compile(
		`respond\s+(?:in|with|using)\s+(?:json|yaml|xml)`,
		`format\s+(?:as|your\s+response\s+as)`,
		`use\s+(?:the\s+following\s+)?(?:format|structure)`,
	),
	"self_reflection": compile(
		`verify\s+your\s+(?:answer|response|work)`,
		`double[\s-]check`,
		`review\s+(?:your|the)\s+(?:answer|response)`,
	),
}

// redundancyPatterns mark re-explaining context the assistant already has.
var redundancyPatterns = compile(
	`(?:let\s+me|i'?ll?)\s+(?:re-?explain|explain\s+again)`,
	`(?:to|let\s+me)\s+remind\s+you`,
	`as\s+i\s+(?:said|mentioned)\s+(?:before|earlier|already)`,
	`in\s+case\s+you\s+(?:forgot|don't\s+remember)`,
	`i'?(?:ll|m\s+going\s+to)\s+repeat`,
	`you\s+(?:probably|might)\s+(?:not\s+)?remember`,
)

// continuityPatterns mark references to prior shared context.
var continuityPatterns = compile(
	`as\s+(?:we|i)\s+(?:discussed|mentioned|talked\s+about)`,
	`continuing\s+(?:from|with|our)`,
	`(?:based|building)\s+on\s+(?:our\s+)?(?:previous|earlier|last)`,
	`(?:referring|going\s+back)\s+to`,
	`(?:as|like)\s+(?:before|last\s+time)`,
	`the\s+(?:project|code|feature)\s+(?:we|i)\s+(?:worked\s+on|started)`,
)

func compile(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// matchesAny reports whether any pattern in the table matches the text.
// Callers lowercase the text once up front.
func matchesAny(text string, table []*regexp.Regexp) bool {
	for _, re := range table {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// countMatches counts how many patterns in the table match the text.
func countMatches(text string, table []*regexp.Regexp) int {
	n := 0
	for _, re := range table {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
