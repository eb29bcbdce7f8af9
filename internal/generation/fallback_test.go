package generation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuma/internal/models"
)

func TestDemoAssessment_ItemCountAndLevels(t *testing.T) {
	for n := MinItemCount; n <= MaxItemCount; n++ {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			req := sampleRequest(models.ContentTest)
			req.ItemCount = n

			content, raw := DemoAssessment(req)

			require.Len(t, content.Items, min(n, 10))
			assert.Contains(t, raw, `"questions"`)
			for i, item := range content.Items {
				level := models.CognitiveLevels[min(i/2, 5)]
				assert.Equal(t, level, item.CognitiveLevel)
				assert.Equal(t, LevelPoints(level), item.Points)
				assert.Equal(t, models.ItemMultipleChoice, item.Kind)
				require.Len(t, item.Options, 4)
				assert.Contains(t, []string{"A", "B", "C", "D"}, item.CorrectAnswer)
			}
		})
	}
}

func TestDemoAssessment_Scenario(t *testing.T) {
	req := sampleRequest(models.ContentTest)

	content, _ := DemoAssessment(req)
	a := BuildAssessment(req, content, models.SourceFallback)

	var levels []models.CognitiveLevel
	for _, item := range a.Items {
		levels = append(levels, item.CognitiveLevel)
	}
	assert.Equal(t, []models.CognitiveLevel{
		models.LevelL1, models.LevelL1, models.LevelL2, models.LevelL2, models.LevelL3,
		models.LevelL3, models.LevelL4, models.LevelL4, models.LevelL5, models.LevelL5,
	}, levels)
	assert.Equal(t, 18, a.TotalPoints)
	assert.Equal(t, `Квадрат теңдеу тақырыбы бойынша 1-сұрақ: "Квадрат теңдеу" ұғымының анықтамасы қандай?`, a.Items[0].Prompt)
	assert.Equal(t, "C) Үшінші нұсқа - Квадрат теңдеу туралы", a.Items[0].Options[2])
}

func TestDemoAnswerLabel_Deterministic(t *testing.T) {
	req := sampleRequest(models.ContentTest)
	first, _ := DemoAssessment(req)
	second, _ := DemoAssessment(req)

	for i := range first.Items {
		assert.Equal(t, first.Items[i].CorrectAnswer, second.Items[i].CorrectAnswer)
		assert.Equal(t, DemoAnswerLabel(req, i+1), first.Items[i].CorrectAnswer)
	}
}

func TestDemoAssessment_Descriptor(t *testing.T) {
	req := sampleRequest(models.ContentDescriptor)

	content, _ := DemoAssessment(req)
	a := BuildAssessment(req, content, models.SourceFallback)

	require.Len(t, a.Tasks, 3)
	assert.Equal(t, []models.TaskLevel{models.TaskLow, models.TaskMedium, models.TaskHigh},
		[]models.TaskLevel{a.Tasks[0].Level, a.Tasks[1].Level, a.Tasks[2].Level})
	assert.Len(t, a.Tasks[0].Descriptors, 3)
	assert.Len(t, a.Tasks[1].Descriptors, 3)
	assert.Len(t, a.Tasks[2].Descriptors, 4)
	assert.Len(t, a.Descriptors, 10)
	assert.Equal(t, 15, a.TotalPoints)
	assert.Contains(t, a.Criteria, "Математика пәні, 5-сынып сынып.")
	assert.Empty(t, a.Items)
}

func TestDemoLessonPlan_AllSectionsNonEmpty(t *testing.T) {
	for _, d := range []int{MinDuration, 45, MaxDuration} {
		req := sampleRequest(models.ContentLessonPlan)
		req.DurationMinutes = d

		s, err := ParseSections(DemoLessonPlanText(req))
		require.NoError(t, err)
		assert.True(t, s.Complete(), "duration %d", d)
		assert.Contains(t, s.Introduction, "Квадрат теңдеу")
		assert.Contains(t, s.Introduction, "Математика")
	}
}

func TestDemoLessonPlan_Objectives(t *testing.T) {
	req := sampleRequest(models.ContentLessonPlan)
	s, err := ParseSections(DemoLessonPlanText(req))
	require.NoError(t, err)
	assert.Contains(t, s.Goals, "Тақырып бойынша негізгі ұғымдарды меңгеру")

	req.Objectives = []string{"Теңдеуді шешу", "Графигін салу"}
	text := DemoLessonPlanText(req)
	s, err = ParseSections(text)
	require.NoError(t, err)
	assert.Contains(t, s.Goals, "- Теңдеуді шешу")
	assert.Contains(t, s.Goals, "- Графигін салу")
	assert.Contains(t, text, "НЕГІЗГІ БӨЛІМ (30 минут)")
}
