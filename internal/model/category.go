package model

import (
	"fmt"
	"strings"
)

// Category groups tasks by area. The set is closed.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryStudy    Category = "study"
	CategoryProject  Category = "project"
	CategoryOther    Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryWork:     "Work",
	CategoryPersonal: "Personal",
	CategoryStudy:    "Study",
	CategoryProject:  "Project",
	CategoryOther:    "Other",
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryStudy, CategoryProject, CategoryOther}
}

// ParseCategory accepts a category name or its label, case-insensitively.
// An empty value yields CategoryOther.
func ParseCategory(raw string) (Category, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return CategoryOther, nil
	}
	c := Category(value)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the display name; unknown values render as "Other".
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}
