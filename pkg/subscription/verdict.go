package subscription

import "github.com/pipelinealfa/crm/pkg/models"

// User-facing verdict messages, kept in Portuguese to match the product UI.
const (
	MsgActiveFound   = "Assinatura ativa encontrada"
	MsgNoneFound     = "Nenhuma assinatura ativa encontrada"
	MsgExpired       = "Assinatura expirada"
	MsgCheckFailed   = "Erro ao verificar status da assinatura"
	MsgUserNotFound  = "Usuário não encontrado na Hotmart"
	MsgEmailRequired = "Email é obrigatório"
)

// Verdict is the outcome of a subscription check for one e-mail.
type Verdict struct {
	HasActiveSubscription bool                 `json:"hasActiveSubscription"`
	Message               string               `json:"message"`
	Subscription          *models.Subscription `json:"subscription,omitempty"`
}

// Active reports whether the verdict allows access.
func (v *Verdict) Active() bool {
	return v != nil && v.HasActiveSubscription
}
