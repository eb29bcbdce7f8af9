package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kuma/internal/llm"
	"kuma/internal/models"
)

const modelTestReply = "```json\n" + `{"questions":[
	{"question":"x² = 4 түбірлері?","options":["A) 2","B) ±2","C) 4","D) 0"],"correctAnswer":"B","bloomLevel":"L1","points":1},
	{"question":"Дискриминант формуласы?","options":["A) b²-4ac","B) b²+4ac","C) 4ac","D) b"],"correctAnswer":"A","bloomLevel":"L2","points":1},
	{"question":"x²-5x+6=0 шешіңіз","options":["A) 1;6","B) 2;3","C) -2;-3","D) 0"],"correctAnswer":"B","bloomLevel":"L3","points":2},
	{"question":"Теңдеулерді салыстырыңыз","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"D","bloomLevel":"L4","points":2},
	{"question":"Өз есебіңізді құрыңыз","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"C","bloomLevel":"L6","points":3}
]}` + "\n```"

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, &llm.ErrProviderUnavailable{Err: ctx.Err()}
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestGenerateAssessment_ModelReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: modelTestReply})
	g := NewGenerator(mock, time.Second, zap.NewNop())
	req := sampleRequest(models.ContentTest)
	req.ItemCount = 5

	out := g.GenerateAssessment(context.Background(), req)

	require.NoError(t, out.Reason)
	assert.Equal(t, models.SourceModel, out.Assessment.Source)
	assert.Equal(t, modelTestReply, out.RawContent)
	require.Len(t, out.Assessment.Items, 5)
	assert.Equal(t, 9, out.Assessment.TotalPoints)

	require.Equal(t, 1, mock.CallCount())
	assert.True(t, mock.Calls[0].JSON)
	assert.NotEmpty(t, mock.Calls[0].System)
	assert.Contains(t, mock.Calls[0].Prompt, "Дәл 5 сұрақ")
}

func TestGenerateAssessment_ProviderFailureFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
	g := NewGenerator(mock, time.Second, nil)

	out := g.GenerateAssessment(context.Background(), sampleRequest(models.ContentTest))

	var rl *llm.ErrRateLimit
	assert.True(t, errors.As(out.Reason, &rl))
	assert.Equal(t, models.SourceFallback, out.Assessment.Source)
	assert.Len(t, out.Assessment.Items, 10)
	assert.Equal(t, 18, out.Assessment.TotalPoints)
	assert.Contains(t, out.RawContent, `"questions"`)
	assert.Equal(t, 1, mock.CallCount(), "no retry")
}

func TestGenerateAssessment_MalformedReplyFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "Кешіріңіз, қазір жауап бере алмаймын."})
	g := NewGenerator(mock, time.Second, nil)

	out := g.GenerateAssessment(context.Background(), sampleRequest(models.ContentDescriptor))

	assert.ErrorIs(t, out.Reason, ErrMalformedResponse)
	assert.Equal(t, models.SourceFallback, out.Assessment.Source)
	assert.Len(t, out.Assessment.Tasks, 3)
}

func TestGenerateAssessment_NoProvider(t *testing.T) {
	g := NewGenerator(nil, time.Second, nil)

	out := g.GenerateAssessment(context.Background(), sampleRequest(models.ContentTest))

	assert.ErrorIs(t, out.Reason, llm.ErrNotConfigured)
	assert.Equal(t, models.SourceFallback, out.Assessment.Source)
}

func TestGenerateAssessment_TimeoutFallsBack(t *testing.T) {
	g := NewGenerator(blockingProvider{}, 20*time.Millisecond, nil)

	start := time.Now()
	out := g.GenerateAssessment(context.Background(), sampleRequest(models.ContentTest))

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, out.Reason, context.DeadlineExceeded)
	assert.Equal(t, models.SourceFallback, out.Assessment.Source)
	assert.Len(t, out.Assessment.Items, 10)
}

func TestGenerateLessonPlan(t *testing.T) {
	reply := "КІРІСПЕ (5 минут)\nСәлем\nНЕГІЗГІ БӨЛІМ (30 минут)\nЖұмыс\n"
	mock := llm.NewMockProvider(llm.MockResponse{Text: reply})
	g := NewGenerator(mock, time.Second, nil)
	req := sampleRequest(models.ContentLessonPlan)
	req.Objectives = []string{"Шешу"}

	out := g.GenerateLessonPlan(context.Background(), req)

	require.NoError(t, out.Reason)
	plan := out.LessonPlan
	assert.Equal(t, models.SourceModel, plan.Source)
	assert.Equal(t, "Сәлем", plan.Introduction)
	assert.Equal(t, "Жұмыс", plan.MainBody)
	assert.Equal(t, "", plan.Goals)
	assert.Equal(t, []string{"Шешу"}, plan.Objectives)
	assert.Equal(t, 45, plan.DurationMinutes)
	assert.False(t, mock.Calls[0].JSON)
}

func TestGenerateLessonPlan_FallbackIsComplete(t *testing.T) {
	g := NewGenerator(llm.NewMockProvider(), time.Second, nil)

	out := g.GenerateLessonPlan(context.Background(), sampleRequest(models.ContentLessonPlan))

	require.Error(t, out.Reason)
	plan := out.LessonPlan
	assert.Equal(t, models.SourceFallback, plan.Source)
	for name, section := range map[string]string{
		"introduction": plan.Introduction, "goals": plan.Goals, "methods": plan.Methods,
		"mainBody": plan.MainBody, "assessment": plan.AssessmentNote,
		"reflection": plan.Reflection, "homework": plan.Homework,
	} {
		assert.NotEmpty(t, section, name)
	}
	assert.Equal(t, out.RawContent, DemoLessonPlanText(sampleRequest(models.ContentLessonPlan)))
}

func TestSelectAssessment_IsPure(t *testing.T) {
	req := sampleRequest(models.ContentTest)
	a := SelectAssessment(req, Attempt{Err: errors.New("down")})
	b := SelectAssessment(req, Attempt{Err: errors.New("down")})

	assert.Equal(t, a.RawContent, b.RawContent)
	assert.Equal(t, a.Assessment.TotalPoints, b.Assessment.TotalPoints)
	assert.True(t, Attempt{Err: errors.New("x")}.Failed())
	assert.False(t, Attempt{Text: "x"}.Failed())
}

func TestSelectLessonPlan_TitleCaseHeadingsKeepModelText(t *testing.T) {
	text := "## Кіріспе\nСәлем.\n## Сабақтың мақсаттары\nМақсат.\n## Әдіс-тәсілдер\nСұрақ-жауап.\n" +
		"## Негізгі бөлім\nТүсіндіру.\n## Бағалау\nТест.\n## Рефлексия\nПікір.\n## Үй тапсырмасы\nЖаттығу."

	out := SelectLessonPlan(sampleRequest(models.ContentLessonPlan), Attempt{Text: text})
	require.NoError(t, out.Reason)
	assert.Equal(t, models.SourceModel, out.LessonPlan.Source)
	assert.Equal(t, "Сәлем.", out.LessonPlan.Introduction)
	assert.Equal(t, "Жаттығу.", out.LessonPlan.Homework)
}
