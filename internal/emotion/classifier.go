// Package emotion implements the regex-based emotion classifier and the
// synthetic starter-preset generator.
package emotion

import "regexp"

// patternSource is the fixed set of emotion keyword patterns, compiled
// once at package init.
var patternSource = map[string][]string{
	"joy": {
		`\bhappy\b`, `\bglad\b`, `\bgreat\b`, `\bwonderful\b`,
		`\bawesome\b`, `\blove\b`, `\benjoy\b`, `\bexcited\b`,
		`\bfantastic\b`, `\bexcellent\b`, `\bamazing\b`, `\bdelighted\b`,
		`\bthrill`, `\bcheer`, `\bpleasur`, `\bjoy\b`,
		`\bhaha\b`, `\blol\b`,
	},
	"sad": {
		`\bsad\b`, `\bsorry\b`, `\bunfortunately\b`, `\bregret\b`,
		`\bdisappoint`, `\bmiss(?:ing|ed)\b`, `\bunhappy\b`,
		`\btragic`, `\bgriev`, `\bheartbreak`,
	},
	"anger": {
		`\bangry\b`, `\bfurious\b`, `\bannoy`, `\bfrustrat`,
		`\birritat`, `\brage\b`, `\binfuriat`, `\boutrag`,
	},
	"surprise": {
		`\bwow\b`, `\bincredible\b`, `\bunbelievable\b`,
		`\bunexpect`, `\bshock`, `\bastound`, `\bastonish`,
		`\bwhoa\b`, `\bomg\b`,
	},
	"agree": {
		`\byes\b`, `\bsure\b`, `\babsolutely\b`, `\bcertainly\b`,
		`\bof course\b`, `\bindeed\b`, `\bcorrect\b`,
		`\bagree\b`, `\bdefinitely\b`, `\bexactly\b`,
	},
	"disagree": {
		`\bdon'?t think\b`, `\bincorrect\b`, `\bwrong\b`,
		`\bdisagree\b`, `\bnot really\b`, `\bnot quite\b`,
		`\bthat'?s not\b`,
	},
	"think": {
		`\bhmm+\b`, `\blet me think\b`, `\bconsider`, `\bperhaps\b`,
		`\bmaybe\b`, `\bpossibly\b`, `\bwonder\b`,
		`\binteresting(?:ly)?\b`,
	},
}

// PresetForEmotion maps a detected emotion to its starter preset name.
var PresetForEmotion = map[string]string{
	"joy":      "smile",
	"sad":      "sad",
	"anger":    "angry",
	"surprise": "surprised",
	"agree":    "nod",
	"disagree": "shake_head",
	"think":    "thinking",
}

// MinScore is the minimum pattern-hit count required to declare a
// winning emotion.
const MinScore = 2

var compiled map[string][]*regexp.Regexp

func init() {
	compiled = make(map[string][]*regexp.Regexp, len(patternSource))
	for emotion, patterns := range patternSource {
		res := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			res[i] = regexp.MustCompile(`(?i)` + p)
		}
		compiled[emotion] = res
	}
}

// Classifier scores a block of text against the compiled pattern table.
type Classifier struct{}

// NewClassifier returns a ready-to-use Classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Detect returns the highest-scoring emotion and its score, or ("", 0)
// if no emotion reaches MinScore.
func (c *Classifier) Detect(text string) (string, int) {
	bestEmotion := ""
	bestScore := 0

	for emotion, patterns := range compiled {
		score := 0
		for _, p := range patterns {
			if p.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestEmotion = emotion
		}
	}

	if bestScore < MinScore {
		return "", 0
	}
	return bestEmotion, bestScore
}

// Mappings returns a copy of the emotion to preset-name table, used by
// the /emotion/mappings collaborator endpoint.
func (c *Classifier) Mappings() map[string]string {
	out := make(map[string]string, len(PresetForEmotion))
	for k, v := range PresetForEmotion {
		out[k] = v
	}
	return out
}

// Patterns returns the live pattern table, a copy of the regex source
// strings for each emotion. Used by the /emotion/filter/install collaborator endpoint,
// which in this system surfaces the table rather than installing a
// plugin into an external Functions database (see DESIGN.md).
func (c *Classifier) Patterns() map[string][]string {
	out := make(map[string][]string, len(patternSource))
	for emotion, patterns := range patternSource {
		cp := make([]string, len(patterns))
		copy(cp, patterns)
		out[emotion] = cp
	}
	return out
}
