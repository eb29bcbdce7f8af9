package generation

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"kuma/internal/models"
)

const maxDescriptorTasks = 5

var testSchema = MustCompileSchema("test-assessment", `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "correctAnswer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {"type": "array", "items": {"type": "string"}},
					"correctAnswer": {"type": "string", "minLength": 1},
					"bloomLevel": {"type": "string"},
					"points": {"type": "number"}
				}
			}
		}
	}
}`)

var descriptorSchema = MustCompileSchema("descriptor-assessment", `{
	"type": "object",
	"required": ["tasks"],
	"properties": {
		"tasks": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["task", "descriptors"],
				"properties": {
					"task": {"type": "string", "minLength": 1},
					"level": {"type": "string"},
					"descriptors": {"type": "array", "minItems": 1, "items": {"type": "string"}},
					"points": {"type": "number"}
				}
			}
		},
		"criteria": {"type": "string"}
	}
}`)

// Wire shapes shared by the model reply and the demo generator.
type testPayload struct {
	Questions []questionPayload `json:"questions"`
}

type questionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	BloomLevel    string   `json:"bloomLevel"`
	Points        float64  `json:"points"`
}

type descriptorPayload struct {
	Tasks    []taskPayload `json:"tasks"`
	Criteria string        `json:"criteria"`
}

type taskPayload struct {
	Task        string   `json:"task"`
	Level       string   `json:"level"`
	Descriptors []string `json:"descriptors"`
	Points      float64  `json:"points"`
}

// AssessmentContent is the generated body of an assessment.
type AssessmentContent struct {
	Items    []models.AssessmentItem
	Tasks    []models.DescriptorTask
	Criteria string
}

// ParseAssessment decodes a model reply for req into normalized content.
func ParseAssessment(req models.GenerationRequest, text string) (AssessmentContent, error) {
	if req.ContentKind == models.ContentDescriptor {
		var p descriptorPayload
		if err := DecodeJSON(text, descriptorSchema, &p); err != nil {
			return AssessmentContent{}, err
		}
		return normalizeDescriptor(p)
	}

	var p testPayload
	if err := DecodeJSON(text, testSchema, &p); err != nil {
		return AssessmentContent{}, err
	}
	return normalizeTest(p, req.ItemCount)
}

func normalizeTest(p testPayload, itemCount int) (AssessmentContent, error) {
	questions := p.Questions
	if itemCount > 0 && len(questions) > itemCount {
		questions = questions[:itemCount]
	}

	items := make([]models.AssessmentItem, 0, len(questions))
	for i, q := range questions {
		pos := i + 1
		level := models.CognitiveLevel(strings.ToUpper(strings.TrimSpace(q.BloomLevel)))
		if !level.Valid() {
			level = LevelForIndex(pos)
		}
		points := int(math.Round(q.Points))
		if points <= 0 {
			points = LevelPoints(level)
		}

		item := models.AssessmentItem{
			Prompt:         strings.TrimSpace(q.Question),
			CognitiveLevel: level,
			Points:         points,
		}

		options := trimAll(q.Options)
		if len(options) == 0 {
			item.Kind = models.ItemOpen
			item.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		} else {
			label, err := resolveAnswer(q.CorrectAnswer, options)
			if err != nil {
				return AssessmentContent{}, fmt.Errorf("%w: question %d: %v", ErrMalformedResponse, pos, err)
			}
			item.Kind = models.ItemMultipleChoice
			item.Options = options
			item.CorrectAnswer = label
		}
		items = append(items, item)
	}
	return AssessmentContent{Items: items}, nil
}

func normalizeDescriptor(p descriptorPayload) (AssessmentContent, error) {
	tasks := p.Tasks
	if len(tasks) > maxDescriptorTasks {
		tasks = tasks[:maxDescriptorTasks]
	}

	out := make([]models.DescriptorTask, 0, len(tasks))
	for i, t := range tasks {
		level := models.TaskLevel(strings.ToLower(strings.TrimSpace(t.Level)))
		if !level.Valid() {
			level = taskLevelForIndex(i)
		}
		points := int(math.Round(t.Points))
		if points <= 0 {
			points = TaskLevelPoints(level)
		}
		descriptors := trimAll(t.Descriptors)
		if len(descriptors) == 0 {
			return AssessmentContent{}, fmt.Errorf("%w: task %d has no descriptors", ErrMalformedResponse, i+1)
		}
		out = append(out, models.DescriptorTask{
			Task:        strings.TrimSpace(t.Task),
			Level:       level,
			Descriptors: descriptors,
			Points:      points,
		})
	}
	return AssessmentContent{Tasks: out, Criteria: strings.TrimSpace(p.Criteria)}, nil
}

// BuildAssessment turns content into an unsaved Assessment, assigning item ids
// and computing the flattened descriptor list and the point total.
func BuildAssessment(req models.GenerationRequest, content AssessmentContent, source models.Source) *models.Assessment {
	a := &models.Assessment{
		Subject:     req.Subject,
		GradeLevel:  req.GradeLevel,
		Topic:       req.Topic,
		ContentKind: req.ContentKind,
		Items:       content.Items,
		Tasks:       content.Tasks,
		Descriptors: []string{},
		Criteria:    content.Criteria,
		Source:      source,
	}
	for i := range a.Items {
		a.Items[i].ID = uuid.NewString()
	}
	for i := range a.Tasks {
		a.Tasks[i].ID = uuid.NewString()
		a.Descriptors = append(a.Descriptors, a.Tasks[i].Descriptors...)
	}
	a.TotalPoints = TotalPoints(a.Items, a.Tasks)
	return a
}

// TotalPoints sums item and task points. Both the model and demo paths use it.
func TotalPoints(items []models.AssessmentItem, tasks []models.DescriptorTask) int {
	total := 0
	for _, it := range items {
		total += it.Points
	}
	for _, t := range tasks {
		total += t.Points
	}
	return total
}

// LevelForIndex assigns a cognitive level to the 1-based item position:
// two items per level, capped at L6.
func LevelForIndex(pos int) models.CognitiveLevel {
	idx := (pos - 1) / 2
	if idx < 0 {
		idx = 0
	}
	if idx > 5 {
		idx = 5
	}
	return models.CognitiveLevels[idx]
}

// LevelPoints maps L1-L2 to 1 point, L3-L4 to 2 and L5-L6 to 3.
func LevelPoints(level models.CognitiveLevel) int {
	switch level {
	case models.LevelL1, models.LevelL2:
		return 1
	case models.LevelL3, models.LevelL4:
		return 2
	default:
		return 3
	}
}

func taskLevelForIndex(i int) models.TaskLevel {
	switch i {
	case 0:
		return models.TaskLow
	case 1:
		return models.TaskMedium
	default:
		return models.TaskHigh
	}
}

// TaskLevelPoints maps low/medium/high to 3/5/7 points.
func TaskLevelPoints(level models.TaskLevel) int {
	switch level {
	case models.TaskLow:
		return 3
	case models.TaskMedium:
		return 5
	default:
		return 7
	}
}

var optionLabels = []string{"A", "B", "C", "D", "E", "F"}

// Cyrillic option labels in alphabet order, as a Kazakh-language reply writes
// them: А) Б) В) Г) Д) Е).
var cyrillicLabels = map[rune]rune{'А': 'A', 'Б': 'B', 'В': 'C', 'Г': 'D', 'Д': 'E', 'Е': 'F'}

// resolveAnswer maps a correct-answer value ("B", "b)", "B) text" or the full
// option text) to the option label and checks that the option exists.
func resolveAnswer(answer string, options []string) (string, error) {
	a := strings.TrimSpace(answer)
	if idx, ok := leadingLabel(a); ok && idx < len(options) {
		return optionLabels[idx], nil
	}
	for i, opt := range options {
		if i >= len(optionLabels) {
			break
		}
		if opt == a || stripLabel(opt) == a {
			return optionLabels[i], nil
		}
	}
	return "", fmt.Errorf("correct answer %q matches no option", answer)
}

func leadingLabel(s string) (int, bool) {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0, false
	}
	r := []rune(strings.ToUpper(string(runes[0])))[0]
	if latin, ok := cyrillicLabels[r]; ok {
		r = latin
	}
	if r < 'A' || int(r-'A') >= len(optionLabels) {
		return 0, false
	}
	if len(runes) > 1 && !strings.ContainsRune(").: ", runes[1]) {
		return 0, false
	}
	return int(r - 'A'), true
}

func stripLabel(option string) string {
	if _, ok := leadingLabel(option); ok {
		runes := []rune(option)
		if len(runes) > 1 {
			return strings.TrimSpace(strings.TrimLeft(string(runes[1:]), ").:"))
		}
	}
	return option
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
