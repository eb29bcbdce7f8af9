package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(0, 100))
	assert.Equal(t, 40, percent(40, 100))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 100, percent(7, 5))
	assert.Equal(t, 0, percent(-3, 10))
	assert.Equal(t, 60, percent(60, 0))
	assert.Equal(t, 100, percent(250, 0))
}

func TestJobManager_Lifecycle(t *testing.T) {
	m := NewJobManager()
	id, snap := m.CreateJob("owner", "assessment-1", []string{"a.txt", "b.pdf"})
	require.NotEmpty(t, id)
	assert.Equal(t, JobStatusPending, snap.Status)
	require.Len(t, snap.Files, 2)
	assert.Equal(t, FileStatusPending, snap.Files[1].Status)

	_, ok := m.GetJob(id, "someone-else")
	assert.False(t, ok)
	_, ok = m.GetJob("missing", "owner")
	assert.False(t, ok)

	m.MarkProcessing(id)
	m.MarkFileStarted(id, 0)
	m.UpdateFileProgress(id, 0, "extract", "Reading essay text", 20, 100)

	job, ok := m.GetJob(id, "owner")
	require.True(t, ok)
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, "extract", job.Files[0].Step)
	assert.Equal(t, 20, job.Files[0].Percent)

	m.MarkFileComplete(id, 0, EssayResult{Name: "a.txt", SubmissionID: "sub-1", TotalScore: 80, MaxScore: 100})
	m.MarkFileError(id, 1, "  ", EssayResult{Name: "b.pdf"})
	m.MarkFileStarted(id, 9)
	m.MarkCompleted(id)

	job, ok = m.GetJob(id, "owner")
	require.True(t, ok)
	assert.Equal(t, JobStatusComplete, job.Status)
	require.Len(t, job.Results, 2)
	assert.Equal(t, FileStatusComplete, job.Results[0].Status)
	assert.Equal(t, 100, job.Files[0].Percent)
	assert.Equal(t, "processing error", job.Files[1].Error)
	assert.Equal(t, "processing error", job.Results[1].Message)
	assert.False(t, job.UpdatedAt.Before(job.CreatedAt))
}

func TestJobManager_SnapshotsAreCopies(t *testing.T) {
	m := NewJobManager()
	id, _ := m.CreateJob("owner", "assessment-1", []string{"a.txt"})
	m.MarkFileComplete(id, 0, EssayResult{Name: "a.txt", TotalScore: 70})

	snap, ok := m.GetJob(id, "owner")
	require.True(t, ok)
	snap.Files[0].Result.TotalScore = 0
	snap.Files[0].Status = FileStatusError
	snap.Results[0].TotalScore = 0

	fresh, ok := m.GetJob(id, "owner")
	require.True(t, ok)
	assert.Equal(t, 70, fresh.Files[0].Result.TotalScore)
	assert.Equal(t, FileStatusComplete, fresh.Files[0].Status)
	assert.Equal(t, 70, fresh.Results[0].TotalScore)
}
