package entity

import (
	"fmt"
	"strings"
)

// Category is one of the fixed topical partitions a report is indexed under.
type Category string

const (
	CategoryGenel   Category = "genel"
	CategoryOzel    Category = "ozel"
	CategoryMevzuat Category = "mevzuat"
)

// ChunkProfile describes how a category windows sentences and how far its hits
// are grown during expansion.
type ChunkProfile struct {
	Size           int
	Overlap        int
	ExpansionChars int
}

// Stride is the number of sentences between consecutive window starts.
func (p ChunkProfile) Stride() int {
	return p.Size - p.Overlap
}

// Validate rejects profiles that cannot advance the window.
func (p ChunkProfile) Validate() error {
	if p.Size < 1 {
		return fmt.Errorf("%w: size must be at least 1, got %d", ErrInvalidProfile, p.Size)
	}
	if p.Overlap < 0 || p.Overlap >= p.Size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidProfile, p.Size, p.Overlap)
	}
	if p.ExpansionChars < 0 {
		return fmt.Errorf("%w: expansion chars must not be negative", ErrInvalidProfile)
	}
	return nil
}

var categoryProfiles = map[Category]ChunkProfile{
	CategoryGenel:   {Size: 5, Overlap: 3, ExpansionChars: 750},
	CategoryOzel:    {Size: 2, Overlap: 1, ExpansionChars: 300},
	CategoryMevzuat: {Size: 6, Overlap: 4, ExpansionChars: 500},
}

// Categories returns every category in prompt order.
func Categories() []Category {
	return []Category{CategoryGenel, CategoryOzel, CategoryMevzuat}
}

// Profile returns the chunking and expansion settings attached to c.
func (c Category) Profile() ChunkProfile {
	return categoryProfiles[c]
}

func (c Category) IsValid() bool {
	_, ok := categoryProfiles[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a persisted or user supplied name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
