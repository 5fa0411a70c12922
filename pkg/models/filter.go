package models

import (
	"fmt"
	"strconv"
	"strings"
)

// LessonFilter selects which part of the catalog a session studies
type LessonFilter struct {
	All    bool
	Lesson int
}

// AllLessons returns a filter matching every card
func AllLessons() LessonFilter {
	return LessonFilter{All: true}
}

// ForLesson returns a filter matching the cards of a single lesson
func ForLesson(lesson int) LessonFilter {
	return LessonFilter{Lesson: lesson}
}

// ParseLessonFilter parses "all" (or an empty string) and lesson numbers
func ParseLessonFilter(s string) (LessonFilter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllLessons(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return LessonFilter{}, fmt.Errorf("invalid lesson %q: %w", s, err)
	}
	return ForLesson(n), nil
}

// Matches reports whether the card belongs to the filtered lesson
func (f LessonFilter) Matches(c Card) bool {
	return f.All || c.Lesson == f.Lesson
}

func (f LessonFilter) String() string {
	if f.All {
		return "all"
	}
	return strconv.Itoa(f.Lesson)
}
