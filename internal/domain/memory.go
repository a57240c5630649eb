package domain

import (
	"fmt"
	"time"
)

// MemoryCategory represents the category of a recorded memory
type MemoryCategory string

const (
	MemoryCategoryCareer       MemoryCategory = "career"
	MemoryCategorySkills       MemoryCategory = "skills"
	MemoryCategoryGoals        MemoryCategory = "goals"
	MemoryCategoryProfessional MemoryCategory = "professional"
	MemoryCategoryOther        MemoryCategory = "other"
)

// Memory represents a discrete fact recorded for a user. Memories are
// immutable; superseded facts are recorded as new memories, never edited.
// Importance is fixed at write time and never recomputed.
type Memory struct {
	ID         string
	UserID     string
	Content    string
	Category   MemoryCategory
	Importance float64 // in [0,1]
	Metadata   map[string]string
	CreatedAt  time.Time
}

// NewMemory creates a new Memory instance
func NewMemory(id, userID, content string, category MemoryCategory, importance float64, metadata map[string]string, createdAt time.Time) *Memory {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Memory{
		ID:         id,
		UserID:     userID,
		Content:    content,
		Category:   category,
		Importance: importance,
		Metadata:   metadata,
		CreatedAt:  createdAt,
	}
}

// ValidateMemory validates a Memory instance
func ValidateMemory(m *Memory) error {
	if m == nil {
		return fmt.Errorf("memory cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("memory ID is required")
	}

	if m.UserID == "" {
		return fmt.Errorf("memory UserID is required")
	}

	if m.Content == "" {
		return fmt.Errorf("memory Content is required")
	}

	if !IsValidMemoryCategory(m.Category) {
		return fmt.Errorf("memory Category is invalid: %s", m.Category)
	}

	if m.Importance < 0 || m.Importance > 1 {
		return fmt.Errorf("memory Importance must be in [0,1]: %f", m.Importance)
	}

	return nil
}

// IsValidMemoryCategory checks if a MemoryCategory is valid
func IsValidMemoryCategory(c MemoryCategory) bool {
	switch c {
	case MemoryCategoryCareer, MemoryCategorySkills, MemoryCategoryGoals,
		MemoryCategoryProfessional, MemoryCategoryOther:
		return true
	}
	return false
}
