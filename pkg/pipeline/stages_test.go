package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagesOrder(t *testing.T) {
	assert.Equal(t, []string{"novo-lead", "em-contato", "visita-marcada", "proposta-enviada", "fechado"}, Stages)
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Novo Lead", StageLabel(StageNew))
	assert.Equal(t, "Fechado", StageLabel(StageClosed))
	// Unknown stages pass through unchanged
	assert.Equal(t, "etapa-antiga", StageLabel("etapa-antiga"))
}

func TestIsValidStage(t *testing.T) {
	for _, stage := range Stages {
		assert.True(t, IsValidStage(stage))
	}
	assert.False(t, IsValidStage("fechado-ganho"))
	assert.False(t, IsValidStage(""))
}
