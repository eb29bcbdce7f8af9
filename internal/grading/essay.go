package grading

import (
	"fmt"
	"strings"

	"kuma/internal/generation"
	"kuma/internal/models"
)

var essaySchema = generation.MustCompileSchema("essay-grade", `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"weaknesses": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}},
		"feedback": {"type": "string"}
	}
}`)

// EssayGrade is a 0-100 essay score with its commentary.
type EssayGrade struct {
	Score       float64  `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
	Feedback    string   `json:"feedback"`
}

// BuildEssayPrompt embeds the assessment context, the essay and the weighted rubric.
func BuildEssayPrompt(a *models.Assessment, essay string) string {
	var b strings.Builder
	b.WriteString("Сен Қазақстанның білікті мұғаліміссің. Оқушы эссесін тексеріп, бағала.\n\n")
	b.WriteString("ТАПСЫРМА:\n")
	fmt.Fprintf(&b, "Пән: %s\n", a.Subject)
	fmt.Fprintf(&b, "Тақырып: %s\n", a.Topic)
	fmt.Fprintf(&b, "Критерийлер: %s\n\n", a.Criteria)
	b.WriteString("ОҚУШЫ ЖАУАБЫ:\n")
	b.WriteString(essay)
	b.WriteString("\n\nТЕКСЕРУ КРИТЕРИЙЛЕРІ:\n")
	b.WriteString("1. Мазмұн (40%)\n")
	b.WriteString("2. Құрылым (20%)\n")
	b.WriteString("3. Тіл сауаттылығы (20%)\n")
	b.WriteString("4. Шығармашылық (20%)\n\n")
	b.WriteString(`JSON форматында қайтар:
{
  "score": 0-100,
  "strengths": ["Күшті жақтары"],
  "weaknesses": ["Әлсіз жақтары"],
  "suggestions": ["Жақсарту ұсыныстары"],
  "feedback": "Жалпы кері байланыс"
}

JSON форматында жауап бер.`)
	return b.String()
}

// ParseEssayGrade decodes a grading reply. Errors wrap generation.ErrMalformedResponse.
func ParseEssayGrade(text string) (EssayGrade, error) {
	var g EssayGrade
	if err := generation.DecodeJSON(text, essaySchema, &g); err != nil {
		return EssayGrade{}, err
	}
	if g.Strengths == nil {
		g.Strengths = []string{}
	}
	if g.Weaknesses == nil {
		g.Weaknesses = []string{}
	}
	if g.Suggestions == nil {
		g.Suggestions = []string{}
	}
	return g, nil
}

// Heuristic score bounds.
const (
	heuristicBase = 50
	heuristicCap  = 95
)

type essaySignals struct {
	words         int
	hasStructure  bool
	mentionsTopic bool
}

func readSignals(essay, topic string) essaySignals {
	return essaySignals{
		words:         len(strings.Fields(essay)),
		hasStructure:  strings.Contains(essay, "\n") || len([]rune(essay)) > 200,
		mentionsTopic: topic != "" && strings.Contains(strings.ToLower(essay), strings.ToLower(topic)),
	}
}

// HeuristicScore scores an essay without a model from its length, layout and
// whether it names the topic.
func HeuristicScore(essay, topic string) int {
	return readSignals(essay, topic).score()
}

func (s essaySignals) score() int {
	score := heuristicBase
	if s.words > 100 {
		score += 10
	}
	if s.words > 200 {
		score += 10
	}
	if s.hasStructure {
		score += 10
	}
	if s.mentionsTopic {
		score += 15
	}
	if s.words > 300 {
		score += 5
	}
	return min(score, heuristicCap)
}

// HeuristicGrade is the full demo grading for an essay.
func HeuristicGrade(essay, topic string) EssayGrade {
	s := readSignals(essay, topic)
	score := s.score()

	strengths := []string{
		pick(s.mentionsTopic, "Тақырыпты дұрыс ашқан", "Жұмысты аяқтаған"),
		pick(s.words > 150, "Жеткілікті көлемде жазған", "Негізгі ойларды білдірген"),
		pick(s.hasStructure, "Құрылымы бар", "Ойын жеткізген"),
	}

	var weaknesses []string
	if s.words < 150 {
		weaknesses = append(weaknesses, "Көлемін ұлғайту керек")
	}
	if !s.mentionsTopic {
		weaknesses = append(weaknesses, "Тақырыпты толық ашу керек")
	}
	weaknesses = append(weaknesses, "Мысалдар көбірек келтіру керек")

	level := "жетілдіруді қажет етеді"
	switch {
	case score >= 70:
		level = "жақсы"
	case score >= 50:
		level = "қанағаттанарлық"
	}

	return EssayGrade{
		Score:      float64(score),
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Suggestions: []string{
			"Қосымша дәлелдер келтіріңіз",
			"Қорытынды бөлімін күшейтіңіз",
			"Тақырыпты тереңірек талдаңыз",
		},
		Feedback: fmt.Sprintf(`Жұмыс %s деңгейде орындалған. "%s" тақырыбы %s. Жалпы %d сөз жазылған.`,
			level, topic, pick(s.mentionsTopic, "қарастырылған", "толық ашылмаған"), s.words),
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
