package models

import "time"

// Lead origins accepted by the pipeline.
const (
	OriginSite      = "site"
	OriginFacebook  = "facebook"
	OriginInstagram = "instagram"
	OriginWhatsApp  = "whatsapp"
	OriginReferral  = "indicacao"
	OriginPhone     = "telefone"
	OriginPortals   = "portais"
	OriginOther     = "outros"
)

// Lead priorities.
const (
	PriorityHigh   = "alta"
	PriorityMedium = "media"
	PriorityLow    = "baixa"
)

// Interaction types.
const (
	InteractionCall    = "ligacao"
	InteractionMessage = "mensagem"
	InteractionVisit   = "visita"
	InteractionMeeting = "reuniao"
)

// Interaction is a logged contact event attached to a lead. Interactions are
// append-only: once recorded they are never edited or removed individually.
type Interaction struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	OccurredAt string    `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

// Lead is a prospective client tracked through the sales pipeline.
type Lead struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	Phone          string        `json:"phone,omitempty"`
	Email          string        `json:"email,omitempty"`
	Neighborhood   string        `json:"neighborhood,omitempty"`
	PropertyType   string        `json:"property_type,omitempty"`
	PotentialValue float64       `json:"potential_value,omitempty"`
	Bedrooms       int           `json:"bedrooms,omitempty"`
	Observations   string        `json:"observations,omitempty"`
	Origin         string        `json:"origin,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	Status         string        `json:"status"`
	Interactions   []Interaction `json:"interactions"`
	CreatedAt      time.Time     `json:"created_at"`
}

// LeadRequest represents the create/update payload for a lead.
type LeadRequest struct {
	Name           string  `json:"name" validate:"required,min=2"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email" validate:"omitempty,email"`
	Neighborhood   string  `json:"neighborhood"`
	PropertyType   string  `json:"property_type"`
	PotentialValue float64 `json:"potential_value" validate:"min=0"`
	Bedrooms       int     `json:"bedrooms" validate:"min=0"`
	Observations   string  `json:"observations"`
	Origin         string  `json:"origin" validate:"omitempty,oneof=site facebook instagram whatsapp indicacao telefone portais outros"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=alta media baixa"`
	Status         string  `json:"status"`
}

// MoveLeadRequest represents a drag-and-drop stage transition.
type MoveLeadRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// InteractionRequest represents an interaction to append to a lead's history.
type InteractionRequest struct {
	Type       string `json:"type" validate:"required,oneof=ligacao mensagem visita reuniao"`
	Content    string `json:"content" validate:"required"`
	OccurredAt string `json:"date" validate:"required"`
}
