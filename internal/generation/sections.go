package generation

import (
	"fmt"
	"strings"
	"unicode"
)

// Lesson-plan section headings, in the order they must appear.
const (
	markerIntroduction = "КІРІСПЕ"
	markerGoals        = "САБАҚТЫҢ МАҚСАТТАРЫ"
	markerMethods      = "ӘДІС-ТӘСІЛДЕР"
	markerMainBody     = "НЕГІЗГІ БӨЛІМ"
	markerAssessment   = "БАҒАЛАУ"
	markerReflection   = "РЕФЛЕКСИЯ"
	markerHomework     = "ҮЙ ТАПСЫРМАСЫ"
)

var sectionMarkers = [...]string{
	markerIntroduction,
	markerGoals,
	markerMethods,
	markerMainBody,
	markerAssessment,
	markerReflection,
	markerHomework,
}

// Sections holds the seven lesson-plan sections. A section whose heading was
// not found is the empty string.
type Sections struct {
	Introduction string
	Goals        string
	Methods      string
	MainBody     string
	Assessment   string
	Reflection   string
	Homework     string
}

func (s Sections) all() [len(sectionMarkers)]string {
	return [...]string{s.Introduction, s.Goals, s.Methods, s.MainBody, s.Assessment, s.Reflection, s.Homework}
}

// Complete reports whether every section is non-empty.
func (s Sections) Complete() bool {
	for _, v := range s.all() {
		if v == "" {
			return false
		}
	}
	return true
}

// ParseSections splits sectioned text into the seven lesson-plan sections.
//
// The scan is a forward-only state machine over lines. A line is a heading when,
// after markdown decoration and list numbering are removed, it starts with the
// marker of a section later than the current one. The heading line itself is
// dropped; following lines belong to that section until the next heading.
// Text before the first heading is ignored. Markers are matched regardless of case.
// It fails with ErrMalformedResponse only when no heading is present at all.
func ParseSections(text string) (Sections, error) {
	var (
		bodies [len(sectionMarkers)][]string
		state  = -1
		found  = 0
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if next, ok := matchHeading(line, state); ok {
			state = next
			found++
			continue
		}
		if state >= 0 {
			bodies[state] = append(bodies[state], line)
		}
	}

	if found == 0 {
		return Sections{}, fmt.Errorf("%w: no lesson plan headings found", ErrMalformedResponse)
	}

	join := func(i int) string {
		return strings.TrimSpace(strings.Join(bodies[i], "\n"))
	}
	return Sections{
		Introduction: join(0),
		Goals:        join(1),
		Methods:      join(2),
		MainBody:     join(3),
		Assessment:   join(4),
		Reflection:   join(5),
		Homework:     join(6),
	}, nil
}

func matchHeading(line string, current int) (int, bool) {
	s := strings.ToUpper(stripDecoration(line))
	if s == "" {
		return 0, false
	}
	for i := current + 1; i < len(sectionMarkers); i++ {
		if strings.HasPrefix(s, sectionMarkers[i]) {
			return i, true
		}
	}
	return 0, false
}

// stripDecoration removes leading markdown heading/emphasis characters and
// list numbering such as "4." or "4)".
func stripDecoration(line string) string {
	s := strings.TrimSpace(line)
	for {
		prev := s
		s = strings.TrimLeft(s, "#*_> \t")
		s = stripNumbering(s)
		if s == prev {
			return s
		}
	}
}

func stripNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	return strings.TrimLeftFunc(s[i+1:], unicode.IsSpace)
}
