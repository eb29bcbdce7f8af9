// Package generation turns a GenerationRequest into an assessment or lesson
// plan: it builds the model prompt, parses the reply, and falls back to
// deterministic demo content whenever the model call or the parse fails.
package generation

import (
	"fmt"
	"strings"

	"kuma/internal/models"
)

const systemPrompt = "Сен Қазақстанның білікті мұғаліміссің. Жауапты қазақ тілінде бер."

// Minute budget of the fixed lesson-plan sections. The main body takes the rest.
const (
	introMinutes      = 5
	assessmentMinutes = 5
	reflectionMinutes = 3
	homeworkMinutes   = 2
	fixedMinutes      = introMinutes + assessmentMinutes + reflectionMinutes + homeworkMinutes
)

// MainBodyMinutes is the main-body budget for a lesson of the given length.
func MainBodyMinutes(duration int) int {
	return duration - fixedMinutes
}

// BuildAssessmentPrompt returns the instruction for a test or descriptor request.
func BuildAssessmentPrompt(req models.GenerationRequest) string {
	if req.ContentKind == models.ContentDescriptor {
		return buildDescriptorPrompt(req)
	}
	return buildTestPrompt(req)
}

func buildTestPrompt(req models.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Сен Қазақстанның білікті мұғаліміссің. Келесі параметрлер бойынша ТЕСТ тапсырмасын жаса:\n\n")
	writeParams(&b, req)
	fmt.Fprintf(&b, "Сұрақ саны: %d\n\n", req.ItemCount)
	b.WriteString("ТАЛАПТАР:\n")
	b.WriteString("1. Bloom таксономиясы бойынша әр түрлі деңгей:\n")
	b.WriteString("   - L1-L2 (Білу, Түсіну): 40%\n")
	b.WriteString("   - L3-L4 (Қолдану, Талдау): 40%\n")
	b.WriteString("   - L5-L6 (Синтез, Бағалау): 20%\n\n")
	fmt.Fprintf(&b, "2. Дәл %d сұрақ. Әр сұраққа:\n", req.ItemCount)
	b.WriteString("   - 4 нұсқа (A, B, C, D)\n")
	b.WriteString("   - 1 дұрыс жауап (тек әріп: A, B, C немесе D)\n")
	b.WriteString("   - Bloom деңгейі (L1-L6)\n")
	b.WriteString("   - Балл (L1-L2: 1, L3-L4: 2, L5-L6: 3)\n\n")
	b.WriteString("3. Сұрақтар жас ерекшелігіне сәйкес\n")
	b.WriteString("4. Қазақ тілінде, түсінікті\n\n")
	b.WriteString(`JSON форматында қайтар:
{
  "questions": [
    {
      "question": "Сұрақ мәтіні",
      "options": ["A) ...", "B) ...", "C) ...", "D) ..."],
      "correctAnswer": "A",
      "bloomLevel": "L1",
      "points": 1
    }
  ]
}

JSON форматында жауап бер.`)
	return b.String()
}

func buildDescriptorPrompt(req models.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Сен Қазақстанның білікті мұғаліміссің. Келесі параметрлер бойынша ДЕСКРИПТОРЛЫҚ ТАПСЫРМА жаса:\n\n")
	writeParams(&b, req)
	b.WriteString("\nТАЛАПТАР:\n")
	b.WriteString("1. 3-5 тапсырма (төмен, орта, жоғары деңгей: low, medium, high)\n")
	b.WriteString("2. Әр тапсырмаға нақты дескрипторлар\n")
	b.WriteString("3. Бағалау критерийлері\n")
	b.WriteString("4. SMART мақсаттарға сәйкес\n\n")
	b.WriteString(`JSON форматында қайтар:
{
  "tasks": [
    {
      "task": "Тапсырма мәтіні",
      "level": "low/medium/high",
      "descriptors": ["Дескриптор 1", "Дескриптор 2"],
      "points": 5
    }
  ],
  "criteria": "Жалпы бағалау критерийлері"
}

JSON форматында жауап бер.`)
	return b.String()
}

// BuildLessonPlanPrompt returns the instruction for a short-term lesson plan.
// Section headings are the markers ParseSections scans for, in the same order.
func BuildLessonPlanPrompt(req models.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Сен Қазақстанның жоғары білікті мұғаліміссің. Келесі параметрлер бойынша ҚМЖ (қысқа мерзімді жоспар) жаса:\n\n")
	writeParams(&b, req)
	b.WriteString("Оқу мақсаттары:\n")
	if len(req.Objectives) == 0 {
		b.WriteString("- (көрсетілмеген, тақырыпқа сай өзің анықта)\n")
	}
	for _, obj := range req.Objectives {
		fmt.Fprintf(&b, "- %s\n", obj)
	}
	fmt.Fprintf(&b, "Ұзақтығы: %d минут\n\n", req.DurationMinutes)

	b.WriteString("ҚМЖ құрылымы (бөлім тақырыптарын дәл осылай, осы ретпен жаз):\n\n")
	fmt.Fprintf(&b, "1. %s (%d минут)\n", markerIntroduction, introMinutes)
	b.WriteString("- Оқушыларды сабаққа дайындау\n- Мотивация\n- Өткен тақырыппен байланыс\n\n")
	fmt.Fprintf(&b, "2. %s\n", markerGoals)
	b.WriteString("- SMART принципі бойынша\n- Оқушыларға түсінікті тілмен\n\n")
	fmt.Fprintf(&b, "3. %s\n", markerMethods)
	b.WriteString("- Белсенді оқыту әдістері\n- Топтық/жұптық жұмыс\n- Дифференциация\n\n")
	fmt.Fprintf(&b, "4. %s (%d минут)\n", markerMainBody, MainBodyMinutes(req.DurationMinutes))
	b.WriteString("- Жаңа материалды түсіндіру\n- Практикалық тапсырмалар\n- Оқушы белсенділігі\n\n")
	fmt.Fprintf(&b, "5. %s (%d минут)\n", markerAssessment, assessmentMinutes)
	b.WriteString("- Формативті бағалау\n- Критерийлер\n- Кері байланыс\n\n")
	fmt.Fprintf(&b, "6. %s (%d минут)\n", markerReflection, reflectionMinutes)
	b.WriteString("- Не білдім? Не үйрендім?\n- Эмоциялық рефлексия\n\n")
	fmt.Fprintf(&b, "7. %s (%d минут)\n", markerHomework, homeworkMinutes)
	b.WriteString("- Нақты тапсырма\n- Дифференцияланған\n\n")

	b.WriteString("Педагогикалық талаптар:\n")
	b.WriteString("- Bloom таксономиясы (L1-L6)\n")
	b.WriteString("- Оқушы орталық оқыту\n")
	b.WriteString("- Жас ерекшелігіне сәйкестік\n")
	return b.String()
}

func writeParams(b *strings.Builder, req models.GenerationRequest) {
	fmt.Fprintf(b, "Пән: %s\n", req.Subject)
	fmt.Fprintf(b, "Сынып: %s\n", req.GradeLevel)
	fmt.Fprintf(b, "Тақырып: %s\n", req.Topic)
}
