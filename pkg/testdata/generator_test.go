package testdata

import (
	"testing"

	"github.com/pipelinealfa/crm/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Lead(t *testing.T) {
	g := New(42)
	lead := g.Lead("user-1")

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "user-1", lead.UserID)
	assert.NotEmpty(t, lead.Name)
	assert.Regexp(t, `^\(11\) 9\d{4}-\d{4}$`, lead.Phone)
	assert.True(t, pipeline.IsValidStage(lead.Status))
	assert.GreaterOrEqual(t, lead.PotentialValue, 300000.0)
}

func TestGenerator_Board(t *testing.T) {
	g := New(7)
	leads, tasks := g.Board("user-1", 5, 2)

	require.Len(t, leads, 5)
	require.Len(t, tasks, 10)

	leadIDs := make(map[string]bool, len(leads))
	for _, l := range leads {
		leadIDs[l.ID] = true
	}
	for _, task := range tasks {
		assert.True(t, leadIDs[task.LeadID], "task must reference a generated lead")
		assert.Equal(t, "user-1", task.UserID)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := New(99).Lead("u")
	b := New(99).Lead("u")

	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, a.Neighborhood, b.Neighborhood)
	assert.Equal(t, a.Status, b.Status)
}
