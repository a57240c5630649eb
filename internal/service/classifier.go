package service

import (
	"strings"

	"github.com/folioworks/careerbase/internal/domain"
)

// categorySignals maps memory categories to the keyword signals that vote
// for them. Order matters: on a tie, the earlier category wins.
var categorySignals = []struct {
	category domain.MemoryCategory
	signals  []string
}{
	{domain.MemoryCategoryCareer, []string{
		"job", "interview", "offer", "company", "position", "recruiter",
		"hired", "career", "application", "applied",
	}},
	{domain.MemoryCategorySkills, []string{
		"skill", "learned", "learning", "proficient", "certification",
		"technology", "framework", "programming", "experience with",
	}},
	{domain.MemoryCategoryGoals, []string{
		"goal", "want to", "plan to", "aiming", "aspire", "objective",
		"milestone", "by next year",
	}},
	{domain.MemoryCategoryProfessional, []string{
		"meeting", "project", "colleague", "manager", "promotion",
		"performance review", "presentation", "stakeholder",
	}},
}

// InferMemoryCategory classifies free-text content into the closed memory
// category enumeration. The function is total: content with no matching
// signal falls through to MemoryCategoryOther.
func InferMemoryCategory(content string) domain.MemoryCategory {
	lower := strings.ToLower(content)

	best := domain.MemoryCategoryOther
	bestScore := 0
	for _, cs := range categorySignals {
		score := 0
		for _, signal := range cs.signals {
			if strings.Contains(lower, signal) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = cs.category
		}
	}

	return best
}

// Importance scoring. The score starts at a low-middle baseline and rises
// by a fixed boost for every distinct high-stakes signal group present in
// the content, capped below explicit metadata floors. An explicit
// `importance: critical` tag floors the score at 0.95 and `high` at 0.7,
// so the score is monotonic in every explicit signal.
const (
	importanceBase          = 0.35
	importanceSignalBoost   = 0.15
	importanceContentCap    = 0.9
	importanceHighFloor     = 0.7
	importanceCriticalFloor = 0.95
)

// highStakesSignals groups keywords that mark a memory as consequential.
// Each group contributes its boost at most once.
var highStakesSignals = [][]string{
	{"offer", "compensation", "salary", "equity", "signing bonus"},
	{"deadline", "expires", "urgent", "due by"},
	{"promotion", "raise", "termination", "layoff", "resign"},
}

// ScoreImportance computes a deterministic importance score in [0,1] from
// content and metadata at write time. Scores are never recomputed after the
// memory is stored.
func ScoreImportance(content string, metadata map[string]string) float64 {
	lower := strings.ToLower(content)

	score := importanceBase
	for _, group := range highStakesSignals {
		for _, signal := range group {
			if strings.Contains(lower, signal) {
				score += importanceSignalBoost
				break
			}
		}
	}
	if score > importanceContentCap {
		score = importanceContentCap
	}

	switch strings.ToLower(strings.TrimSpace(metadata["importance"])) {
	case "critical":
		if score < importanceCriticalFloor {
			score = importanceCriticalFloor
		}
	case "high":
		if score < importanceHighFloor {
			score = importanceHighFloor
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}
