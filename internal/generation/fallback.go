package generation

import (
	"fmt"
	"hash/fnv"

	"kuma/internal/models"
)

// maxDemoItems caps the number of items the demo test generator emits.
const maxDemoItems = 10

var levelTemplates = map[models.CognitiveLevel]string{
	models.LevelL1: `"%s" ұғымының анықтамасы қандай?`,
	models.LevelL2: `"%s" тақырыбындағы негізгі идеяны түсіндіріңіз`,
	models.LevelL3: `"%s" білімін практикада қалай қолданасыз?`,
	models.LevelL4: `"%s" тақырыбындағы ақпаратты талдаңыз`,
	models.LevelL5: `"%s" бойынша өз ойыңызды қорытындылаңыз`,
	models.LevelL6: `"%s" тақырыбын бағалап, пікір білдіріңіз`,
}

var demoOptionOrdinals = [4]string{"Бірінші", "Екінші", "Үшінші", "Төртінші"}

// demoTest mirrors the test payload a model would return for req.
func demoTest(req models.GenerationRequest) testPayload {
	n := min(req.ItemCount, maxDemoItems)
	questions := make([]questionPayload, 0, n)
	for i := 1; i <= n; i++ {
		level := LevelForIndex(i)
		options := make([]string, len(demoOptionOrdinals))
		for j, ord := range demoOptionOrdinals {
			options[j] = fmt.Sprintf("%s) %s нұсқа - %s туралы", optionLabels[j], ord, req.Topic)
		}
		questions = append(questions, questionPayload{
			Question:      fmt.Sprintf("%s тақырыбы бойынша %d-сұрақ: %s", req.Topic, i, fmt.Sprintf(levelTemplates[level], req.Topic)),
			Options:       options,
			CorrectAnswer: DemoAnswerLabel(req, i),
			BloomLevel:    string(level),
			Points:        float64(LevelPoints(level)),
		})
	}
	return testPayload{Questions: questions}
}

// DemoAnswerLabel picks the correct option label for demo item i. The choice is
// a hash of the request and the position, so the same request always yields the
// same answer key.
func DemoAnswerLabel(req models.GenerationRequest, i int) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%d", req.Subject, req.GradeLevel, req.Topic, i)
	return optionLabels[h.Sum32()%uint32(len(demoOptionOrdinals))]
}

func demoDescriptor(req models.GenerationRequest) descriptorPayload {
	return descriptorPayload{
		Tasks: []taskPayload{
			{
				Task:  fmt.Sprintf(`"%s" тақырыбы бойынша негізгі ұғымдарды анықтаңыз`, req.Topic),
				Level: string(models.TaskLow),
				Descriptors: []string{
					"Негізгі терминдерді дұрыс жазады",
					"Анықтамаларды дәл келтіреді",
					"Мысалдар келтіреді",
				},
				Points: 3,
			},
			{
				Task:  fmt.Sprintf(`"%s" тақырыбы бойынша салыстырмалы талдау жасаңыз`, req.Topic),
				Level: string(models.TaskMedium),
				Descriptors: []string{
					"Ұқсастықтар мен айырмашылықтарды анықтайды",
					"Кестеде дұрыс көрсетеді",
					"Қорытынды жасайды",
				},
				Points: 5,
			},
			{
				Task:  fmt.Sprintf(`"%s" тақырыбы бойынша шығармашылық жұмыс жазыңыз`, req.Topic),
				Level: string(models.TaskHigh),
				Descriptors: []string{
					"Өз ойын дәлелдермен негіздейді",
					"Шығармашылық тәсілдер қолданады",
					"Жаңа идеялар ұсынады",
					"Логикалық байланыс сақталған",
				},
				Points: 7,
			},
		},
		Criteria: fmt.Sprintf(`%s пәні, %s сынып. "%s" тақырыбы бойынша бағалау критерийлері: толықтық, дәлдік, шығармашылық.`,
			req.Subject, req.GradeLevel, req.Topic),
	}
}

// DemoAssessment returns the demo content for req together with the JSON text
// it stands in for.
func DemoAssessment(req models.GenerationRequest) (AssessmentContent, string) {
	var payload any
	if req.ContentKind == models.ContentDescriptor {
		payload = demoDescriptor(req)
	} else {
		payload = demoTest(req)
	}

	raw := mustIndent(payload)
	content, err := ParseAssessment(req, raw)
	if err != nil {
		panic(fmt.Sprintf("demo assessment does not parse: %v", err))
	}
	return content, raw
}

// DemoLessonPlanText renders the demo lesson plan in the same sectioned layout
// the model is asked for.
func DemoLessonPlanText(req models.GenerationRequest) string {
	first := "Тақырып бойынша негізгі ұғымдарды меңгеру"
	second := "Теориялық білімді практикада қолдану"
	if len(req.Objectives) > 0 && req.Objectives[0] != "" {
		first = req.Objectives[0]
	}
	if len(req.Objectives) > 1 && req.Objectives[1] != "" {
		second = req.Objectives[1]
	}

	return fmt.Sprintf(`%[1]s (5 минут)
Сәлемдесу және оқушылардың сабаққа дайындығын тексеру.
%[12]s пәні, %[13]s сынып: "%[8]s" тақырыбына кіріспе жасау.
Өткен сабақпен байланыс орнату: алдыңғы тақырыптан негізгі түсініктерді еске түсіру.
Мотивация: тақырыптың өмірдегі маңыздылығын түсіндіру.

%[2]s
Білімділік мақсаты:
- %[9]s
- %[10]s

Дамытушылық мақсаты:
- Сыни ойлау дағдыларын дамыту
- Ақпаратты талдау және жүйелеу қабілетін арттыру

Тәрбиелік мақсаты:
- Топта жұмыс істеу мәдениетін қалыптастыру
- Өзіндік жұмыс дағдыларын дамыту

%[3]s
Оқыту әдістері:
- Интерактивті әдіс (сұрақ-жауап)
- Топтық жұмыс (4-5 адамнан)
- Жұптық талқылау
- Практикалық тапсырмалар

Дифференциация:
- Төмен деңгей: үлгі бойынша тапсырма
- Орта деңгей: стандартты тапсырма
- Жоғары деңгей: шығармашылық тапсырма

%[4]s (%[11]d минут)
1. Жаңа материалды түсіндіру
   - "%[8]s" тақырыбының негізгі ұғымдары
   - Визуалды материалдар көрсету
   - Мысалдар келтіру

2. Топтық тапсырма
   - Оқушыларды топқа бөлу
   - Әр топқа тапсырма беру
   - Мұғалімнің бақылауы мен көмегі

3. Презентация және талқылау
   - Топтардың жұмысын көрсету
   - Сұрақтар мен жауаптар
   - Қорытынды жасау

%[5]s (5 минут)
Формативті бағалау:
- Бас бармақ әдісі (түсіндім/түсінбедім)
- Өзін-өзі бағалау парағы

Дескрипторлар:
- Тақырыпты толық түсінеді - 3 балл
- Негізгі ұғымдарды біледі - 2 балл
- Қосымша көмек қажет - 1 балл

%[6]s (3 минут)
"Бүгін мен не білдім?" - оқушылар жауап жазады
"Маған не қиын болды?" - қиындықтарды талқылау
"Келесі сабақта нені білгім келеді?" - болашаққа жоспар

%[7]s (2 минут)
Негізгі деңгей:
- Оқулықтан %[8]s тақырыбын оқу
- 5 сұраққа жауап жазу

Қосымша тапсырма (қалауы бойынша):
- Тақырып бойынша постер дайындау
- Қосымша мысалдар табу
`,
		markerIntroduction, markerGoals, markerMethods, markerMainBody,
		markerAssessment, markerReflection, markerHomework,
		req.Topic, first, second, MainBodyMinutes(req.DurationMinutes),
		req.Subject, req.GradeLevel)
}
