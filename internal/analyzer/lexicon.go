package analyzer

import "strings"

// Style and texture labels
const (
	StyleFormal   = "formal"
	StyleCasual   = "casual"
	StyleAthletic = "athletic"

	FormalityFormal = "formal"
	FormalityCasual = "casual"

	TextureUnknown = "unknown"
)

// Category is a named keyword list
type Category struct {
	Name     string
	Keywords []string
}

// StyleCategories in tie-break order
var StyleCategories = []Category{
	{"formal", []string{"suit", "blazer", "dress shirt", "tie", "formal", "business", "elegant"}},
	{"casual", []string{"t-shirt", "jeans", "sneakers", "hoodie", "casual", "relaxed", "comfortable", "leggings"}},
	{"sports", []string{"athletic", "sports", "gym", "workout", "running", "training"}},
}

// TextureCategories in tie-break order
var TextureCategories = []Category{
	{"cotton", []string{"cotton", "soft", "comfortable"}},
	{"denim", []string{"denim", "jeans", "rugged"}},
	{"silk", []string{"silk", "smooth", "shiny", "lustrous", "leggings", "velvet"}},
	{"wool", []string{"wool", "warm", "thick"}},
	{"leather", []string{"leather", "tough", "durable"}},
	{"synthetic", []string{"polyester", "synthetic", "artificial"}},
}

// CategoryScore is the keyword hit count of one category
type CategoryScore struct {
	Name  string
	Score int
}

// AttributeScoreTable holds the scores of every style and texture category
// in declaration order
type AttributeScoreTable struct {
	Style   []CategoryScore
	Texture []CategoryScore
}

// StyleScore returns the score of the named style category
func (t AttributeScoreTable) StyleScore(name string) int {
	return lookupScore(t.Style, name)
}

// TextureScore returns the score of the named texture category
func (t AttributeScoreTable) TextureScore(name string) int {
	return lookupScore(t.Texture, name)
}

// ScoreText counts, per category, how many of its keywords occur in text.
// A keyword counts once however often it appears, and the same keyword may
// score for several categories.
func ScoreText(text string) AttributeScoreTable {
	return AttributeScoreTable{
		Style:   scoreCategories(text, StyleCategories),
		Texture: scoreCategories(text, TextureCategories),
	}
}

func scoreCategories(text string, categories []Category) []CategoryScore {
	scores := make([]CategoryScore, len(categories))
	for i, c := range categories {
		scores[i].Name = c.Name
		for _, kw := range c.Keywords {
			if strings.Contains(text, kw) {
				scores[i].Score++
			}
		}
	}
	return scores
}

func lookupScore(scores []CategoryScore, name string) int {
	for _, s := range scores {
		if s.Name == name {
			return s.Score
		}
	}
	return 0
}

// isStyleKeyword reports whether a token equals any style keyword
func isStyleKeyword(token string) bool {
	for _, c := range StyleCategories {
		for _, kw := range c.Keywords {
			if token == kw {
				return true
			}
		}
	}
	return false
}
