// Package pipeline defines the fixed five-stage sales funnel every lead
// moves through.
package pipeline

// Stage identifiers, in funnel order.
const (
	StageNew          = "novo-lead"
	StageInContact    = "em-contato"
	StageVisit        = "visita-marcada"
	StageProposalSent = "proposta-enviada"
	StageClosed       = "fechado"
)

// Stages lists the stage identifiers in funnel order.
var Stages = []string{
	StageNew,
	StageInContact,
	StageVisit,
	StageProposalSent,
	StageClosed,
}

var stageLabels = map[string]string{
	StageNew:          "Novo Lead",
	StageInContact:    "Em Contato",
	StageVisit:        "Visita Marcada",
	StageProposalSent: "Proposta Enviada",
	StageClosed:       "Fechado",
}

// IsValidStage reports whether status names one of the five known stages.
func IsValidStage(status string) bool {
	_, ok := stageLabels[status]
	return ok
}

// StageLabel returns the human-readable label for a stage. Unknown stage
// identifiers pass through unchanged so stale data still renders.
func StageLabel(stage string) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}
	return stage
}
