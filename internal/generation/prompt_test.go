package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kuma/internal/models"
)

func sampleRequest(kind models.ContentKind) models.GenerationRequest {
	return models.GenerationRequest{
		Subject:         "Математика",
		GradeLevel:      "5-сынып",
		Topic:           "Квадрат теңдеу",
		ContentKind:     kind,
		ItemCount:       10,
		DurationMinutes: 45,
	}
}

func TestBuildAssessmentPrompt_Test(t *testing.T) {
	req := sampleRequest(models.ContentTest)
	req.ItemCount = 12

	prompt := BuildAssessmentPrompt(req)

	assert.Contains(t, prompt, "Пән: Математика")
	assert.Contains(t, prompt, "Тақырып: Квадрат теңдеу")
	assert.Contains(t, prompt, "Дәл 12 сұрақ")
	assert.Contains(t, prompt, "L1-L2 (Білу, Түсіну): 40%")
	assert.Contains(t, prompt, "L3-L4 (Қолдану, Талдау): 40%")
	assert.Contains(t, prompt, "L5-L6 (Синтез, Бағалау): 20%")
	assert.Contains(t, prompt, "4 нұсқа (A, B, C, D)")
	assert.Contains(t, prompt, `"correctAnswer"`)
}

func TestBuildAssessmentPrompt_Descriptor(t *testing.T) {
	prompt := BuildAssessmentPrompt(sampleRequest(models.ContentDescriptor))

	assert.Contains(t, prompt, "ДЕСКРИПТОРЛЫҚ")
	assert.Contains(t, prompt, "3-5 тапсырма")
	assert.Contains(t, prompt, `"criteria"`)
	assert.NotContains(t, prompt, "Bloom")
}

func TestBuildLessonPlanPrompt(t *testing.T) {
	req := sampleRequest(models.ContentLessonPlan)
	req.Objectives = []string{"5.2.1.1 квадрат теңдеуді шешу", "Дискриминантты табу"}
	req.DurationMinutes = 40

	prompt := BuildLessonPlanPrompt(req)

	assert.Contains(t, prompt, "- 5.2.1.1 квадрат теңдеуді шешу\n")
	assert.Contains(t, prompt, "- Дискриминантты табу\n")
	assert.Contains(t, prompt, "Ұзақтығы: 40 минут")
	assert.Contains(t, prompt, "НЕГІЗГІ БӨЛІМ (25 минут)")

	// headings appear in order
	last := -1
	for _, marker := range sectionMarkers {
		idx := strings.Index(prompt, marker)
		if assert.NotEqual(t, -1, idx, marker) {
			assert.Greater(t, idx, last, marker)
			last = idx
		}
	}
}

func TestMainBodyMinutes_SumsToDuration(t *testing.T) {
	for _, d := range []int{20, 45, 90, 180} {
		total := introMinutes + MainBodyMinutes(d) + assessmentMinutes + reflectionMinutes + homeworkMinutes
		assert.Equal(t, d, total)
	}
	assert.Equal(t, 30, MainBodyMinutes(45))
}
