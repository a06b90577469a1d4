// Package testdata generates realistic sample leads and tasks for seeding
// development databases and exercising the API locally.
package testdata

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/pipeline"
)

var (
	neighborhoods = []string{"Vila Madalena", "Pinheiros", "Jardins", "Moema", "Itaim Bibi", "Perdizes", "Brooklin", "Tatuapé"}
	propertyTypes = []string{"apartamento", "casa", "cobertura", "studio", "terreno"}
	origins       = []string{
		models.OriginSite, models.OriginFacebook, models.OriginInstagram,
		models.OriginWhatsApp, models.OriginReferral, models.OriginPhone,
		models.OriginPortals, models.OriginOther,
	}
	priorities = []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

	taskTitles = []string{
		"Ligar para o cliente",
		"Enviar opções de imóveis",
		"Agendar visita",
		"Preparar proposta",
		"Enviar documentação",
		"Confirmar visita de amanhã",
	}

	interactionContents = []string{
		"Primeira ligação - cliente interessado",
		"Enviado WhatsApp com opções na região",
		"Cliente confirmou interesse, quer agendar visita",
		"Visita realizada, cliente gostou do imóvel",
		"Cliente pediu mais fotos do imóvel",
	}
)

// Generator produces fake leads and tasks for one user.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a generator. A fixed seed produces deterministic data.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Lead produces one lead with a plausible Brazilian profile.
func (g *Generator) Lead(userID string) models.Lead {
	name := g.faker.Name()
	createdAt := time.Now().Add(-time.Duration(g.faker.Number(1, 30)) * 24 * time.Hour)

	lead := models.Lead{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           name,
		Phone:          fmt.Sprintf("(11) 9%04d-%04d", g.faker.Number(1000, 9999), g.faker.Number(1000, 9999)),
		Email:          g.faker.Email(),
		Neighborhood:   g.pick(neighborhoods),
		PropertyType:   g.pick(propertyTypes),
		PotentialValue: float64(g.faker.Number(300, 2500)) * 1000,
		Bedrooms:       g.faker.Number(1, 4),
		Observations:   g.faker.Sentence(8),
		Origin:         g.pick(origins),
		Priority:       g.pick(priorities),
		Status:         g.pick(pipeline.Stages),
		Interactions:   g.interactions(createdAt),
		CreatedAt:      createdAt,
	}
	return lead
}

// Task produces one task attached to the given lead.
func (g *Generator) Task(userID, leadID string) models.Task {
	due := time.Now().Add(time.Duration(g.faker.Number(-3, 7)) * 24 * time.Hour)

	return models.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		LeadID:      leadID,
		Title:       g.pick(taskTitles),
		Description: g.faker.Sentence(6),
		DueDate:     due,
		Priority:    g.pick(priorities),
		Completed:   g.faker.Bool(),
		CreatedAt:   time.Now().Add(-time.Duration(g.faker.Number(1, 10)) * 24 * time.Hour),
	}
}

// Board produces a full sample board: leads plus tasks referencing them.
func (g *Generator) Board(userID string, leadCount, tasksPerLead int) ([]models.Lead, []models.Task) {
	leads := make([]models.Lead, 0, leadCount)
	tasks := make([]models.Task, 0, leadCount*tasksPerLead)

	for i := 0; i < leadCount; i++ {
		lead := g.Lead(userID)
		leads = append(leads, lead)
		for j := 0; j < tasksPerLead; j++ {
			tasks = append(tasks, g.Task(userID, lead.ID))
		}
	}
	return leads, tasks
}

func (g *Generator) interactions(since time.Time) []models.Interaction {
	count := g.faker.Number(0, 3)
	out := make([]models.Interaction, 0, count)

	types := []string{models.InteractionCall, models.InteractionMessage, models.InteractionVisit, models.InteractionMeeting}
	for i := 0; i < count; i++ {
		occurred := since.Add(time.Duration(i+1) * 24 * time.Hour)
		out = append(out, models.Interaction{
			ID:         fmt.Sprintf("int-%d", occurred.UnixMilli()),
			Type:       g.pick(types),
			Content:    g.pick(interactionContents),
			OccurredAt: occurred.Format("2006-01-02"),
			CreatedAt:  occurred,
		})
	}
	return out
}

func (g *Generator) pick(options []string) string {
	return options[g.faker.Number(0, len(options)-1)]
}
