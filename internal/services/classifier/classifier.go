package classifier

import (
	"strings"

	"github.com/ternarybob/ecclesia/internal/models"
)

// classificationRule maps keywords to a category
type classificationRule struct {
	name     string          // Rule identifier, reported by ClassifyWithReason
	category models.Category // Category assigned on match
	keywords []string        // Any keyword triggers the rule (latin keywords lower-case)
}

// classificationRules defines all rules in priority order (first match wins).
// Retreat precedes youth so "청년 피정" is a retreat, and pilgrimage precedes
// mass so "성지 순례 미사" is a pilgrimage.
var classificationRules = []classificationRule{
	{
		name:     "retreat",
		category: models.CategoryRetreat,
		keywords: []string{"피정", "피정의 집", "retreat", "묵상회", "렉시오"},
	},
	{
		name:     "pilgrimage",
		category: models.CategoryPilgrimage,
		keywords: []string{"순례", "성지", "pilgrimage"},
	},
	{
		name:     "mass",
		category: models.CategoryMass,
		keywords: []string{"미사", "성체", "전례", "성사", "mass", "liturgy"},
	},
	{
		name:     "lecture",
		category: models.CategoryLecture,
		keywords: []string{"강의", "강좌", "특강", "세미나", "교육", "아카데미", "lecture", "seminar"},
	},
	{
		name:     "youth",
		category: models.CategoryYouth,
		keywords: []string{"청년", "청소년", "주일학교", "대학생", "youth"},
	},
	{
		name:     "culture",
		category: models.CategoryCulture,
		keywords: []string{"음악회", "콘서트", "전시", "공연", "영화", "합창", "concert", "exhibition"},
	},
}

// Result explains a classification
type Result struct {
	Category  models.Category
	Rule      string // Matched rule name, empty on fallback
	Keyword   string // Matched keyword, empty on fallback
	IsDefault bool   // True when no rule matched and the default category was used
}

// Classify assigns a category from the title and an optional auxiliary type
// label (a board or menu name). It never fails.
func Classify(title, auxType string) models.Category {
	return ClassifyWithReason(title, auxType).Category
}

// ClassifyWithReason is Classify with the matched rule reported, so callers
// can tell a genuine mission event from the fallback
func ClassifyWithReason(title, auxType string) Result {
	text := strings.ToLower(title + " " + auxType)

	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return Result{
					Category: rule.category,
					Rule:     rule.name,
					Keyword:  keyword,
				}
			}
		}
	}

	return Result{
		Category:  models.DefaultCategory,
		IsDefault: true,
	}
}
