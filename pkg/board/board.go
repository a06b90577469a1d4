// Package board holds the per-user working copy of the pipeline: the lead and
// task lists the UI renders, kept in sync with the store. Stage moves are
// optimistic (local first, rolled back on failure); everything else writes
// remotely before touching the local copy.
package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pipelinealfa/crm/pkg/domain"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/pipeline"
	"github.com/pipelinealfa/crm/pkg/store"
)

// Board is one user's pipeline state. All methods are safe for concurrent
// use; concurrent writes to the same lead resolve last-writer-wins.
type Board struct {
	userID   string
	leads    store.LeadStore
	tasks    store.TaskStore
	notifier notify.Notifier
	log      logger.Logger

	mu       sync.Mutex
	leadList []models.Lead
	taskList []models.Task

	now   func() time.Time
	newID func() string
}

// NewBoard creates an empty board for the user. Call Load before serving
// reads.
func NewBoard(userID string, leads store.LeadStore, tasks store.TaskStore, notifier notify.Notifier, log logger.Logger) *Board {
	return &Board{
		userID:   userID,
		leads:    leads,
		tasks:    tasks,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Load fetches the user's leads and tasks from the store.
func (b *Board) Load(ctx context.Context) error {
	leads, err := b.leads.ListByUser(ctx, b.userID)
	if err != nil {
		return domain.NewInternalError(err)
	}
	tasks, err := b.tasks.ListByUser(ctx, b.userID)
	if err != nil {
		return domain.NewInternalError(err)
	}

	b.mu.Lock()
	b.leadList = leads
	b.taskList = tasks
	b.mu.Unlock()
	return nil
}

// Leads returns a copy of the current lead list, newest first.
func (b *Board) Leads() []models.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneSlice(b.leadList)
}

// Tasks returns a copy of the current task list, newest first.
func (b *Board) Tasks() []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneSlice(b.taskList)
}

// CreateLead persists a new lead and prepends it to the local list.
func (b *Board) CreateLead(ctx context.Context, req *models.LeadRequest) (*models.Lead, error) {
	status := req.Status
	if status == "" {
		status = pipeline.StageNew
	}

	lead := &models.Lead{
		ID:             b.newID(),
		UserID:         b.userID,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Neighborhood:   req.Neighborhood,
		PropertyType:   req.PropertyType,
		PotentialValue: req.PotentialValue,
		Bedrooms:       req.Bedrooms,
		Observations:   req.Observations,
		Origin:         req.Origin,
		Priority:       req.Priority,
		Status:         status,
		Interactions:   []models.Interaction{},
		CreatedAt:      b.now(),
	}

	if err := b.leads.Create(ctx, lead); err != nil {
		b.notifyError("Erro ao adicionar lead", err)
		return nil, domain.NewInternalError(err)
	}

	b.mu.Lock()
	b.leadList = append([]models.Lead{*lead}, b.leadList...)
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Lead adicionado!", Message: "Novo lead foi adicionado ao pipeline.", Variant: notify.VariantDefault})
	return lead, nil
}

// UpdateLead persists changes to an existing lead, then applies them locally.
func (b *Board) UpdateLead(ctx context.Context, leadID string, req *models.LeadRequest) (*models.Lead, error) {
	b.mu.Lock()
	idx := b.leadIndex(leadID)
	if idx < 0 {
		b.mu.Unlock()
		return nil, domain.NewNotFoundError("Lead")
	}
	updated := b.leadList[idx]
	b.mu.Unlock()

	updated.Name = req.Name
	updated.Phone = req.Phone
	updated.Email = req.Email
	updated.Neighborhood = req.Neighborhood
	updated.PropertyType = req.PropertyType
	updated.PotentialValue = req.PotentialValue
	updated.Bedrooms = req.Bedrooms
	updated.Observations = req.Observations
	updated.Origin = req.Origin
	updated.Priority = req.Priority
	if req.Status != "" {
		updated.Status = req.Status
	}

	if err := b.leads.Update(ctx, &updated); err != nil {
		b.notifyError("Erro ao atualizar lead", err)
		return nil, domain.NewInternalError(err)
	}

	b.mu.Lock()
	if idx := b.leadIndex(leadID); idx >= 0 {
		b.leadList[idx] = updated
	}
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Lead atualizado!", Message: "As informações do lead foram atualizadas.", Variant: notify.VariantDefault})
	return &updated, nil
}

// MoveLead transitions a lead between stages. Moving to the stage it is
// already in is a no-op and touches nothing, local or remote. Otherwise the
// local list is rewritten first and restored verbatim if the remote write
// fails.
func (b *Board) MoveLead(ctx context.Context, leadID, from, to string) error {
	if from == to {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.leadIndex(leadID) < 0 {
		return domain.NewNotFoundError("Lead")
	}

	err := optimistic(&b.leadList,
		func(leads []models.Lead) []models.Lead {
			for i := range leads {
				if leads[i].ID == leadID {
					leads[i].Status = to
				}
			}
			return leads
		},
		func() error {
			return b.leads.UpdateStatus(ctx, b.userID, leadID, to)
		},
	)
	if err != nil {
		b.notifyError("Erro ao mover lead", err)
		return domain.NewInternalError(err)
	}

	b.notifier.Notify(notify.Notice{
		Title:   "Lead movido com sucesso!",
		Message: fmt.Sprintf("Lead movido para %s", pipeline.StageLabel(to)),
		Variant: notify.VariantDefault,
	})
	return nil
}

// DeleteLead removes the lead remotely, then prunes it and its tasks from the
// local lists in a single update.
func (b *Board) DeleteLead(ctx context.Context, leadID string) error {
	b.mu.Lock()
	idx := b.leadIndex(leadID)
	b.mu.Unlock()
	if idx < 0 {
		return domain.NewNotFoundError("Lead")
	}

	if err := b.leads.Delete(ctx, b.userID, leadID); err != nil {
		b.notifyError("Erro ao excluir lead", err)
		return domain.NewInternalError(err)
	}

	b.mu.Lock()
	kept := b.leadList[:0:0]
	for _, lead := range b.leadList {
		if lead.ID != leadID {
			kept = append(kept, lead)
		}
	}
	b.leadList = kept

	keptTasks := b.taskList[:0:0]
	for _, task := range b.taskList {
		if task.LeadID != leadID {
			keptTasks = append(keptTasks, task)
		}
	}
	b.taskList = keptTasks
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Lead excluído!", Message: "O lead e suas tarefas foram removidos.", Variant: notify.VariantDestructive})
	return nil
}

// AddInteraction appends an interaction to the lead's history and persists
// the full list.
func (b *Board) AddInteraction(ctx context.Context, leadID string, req *models.InteractionRequest) (*models.Lead, error) {
	b.mu.Lock()
	idx := b.leadIndex(leadID)
	if idx < 0 {
		b.mu.Unlock()
		return nil, domain.NewNotFoundError("Lead")
	}
	lead := b.leadList[idx]
	b.mu.Unlock()

	interaction := models.Interaction{
		ID:         fmt.Sprintf("int-%d", b.now().UnixMilli()),
		Type:       req.Type,
		Content:    req.Content,
		OccurredAt: req.OccurredAt,
		CreatedAt:  b.now(),
	}
	updated := append(cloneSlice(lead.Interactions), interaction)

	if err := b.leads.UpdateInteractions(ctx, b.userID, leadID, updated); err != nil {
		b.notifyError("Erro ao registrar interação", err)
		return nil, domain.NewInternalError(err)
	}

	lead.Interactions = updated

	b.mu.Lock()
	if idx := b.leadIndex(leadID); idx >= 0 {
		b.leadList[idx] = lead
	}
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Interação registrada!", Message: "A interação foi adicionada ao histórico do lead.", Variant: notify.VariantDefault})
	return &lead, nil
}

// CreateTask persists a new task and prepends it to the local list.
func (b *Board) CreateTask(ctx context.Context, req *models.TaskRequest) (*models.Task, error) {
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, domain.NewValidationError("Data de vencimento inválida")
	}

	task := &models.Task{
		ID:          b.newID(),
		UserID:      b.userID,
		LeadID:      req.LeadID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Completed:   false,
		CreatedAt:   b.now(),
	}

	if err := b.tasks.Create(ctx, task); err != nil {
		b.notifyError("Erro ao adicionar tarefa", err)
		return nil, domain.NewInternalError(err)
	}

	b.mu.Lock()
	b.taskList = append([]models.Task{*task}, b.taskList...)
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Tarefa adicionada!", Message: "Nova tarefa foi criada.", Variant: notify.VariantDefault})
	return task, nil
}

// UpdateTask persists changes to a task, then applies them locally.
func (b *Board) UpdateTask(ctx context.Context, taskID string, req *models.TaskRequest) (*models.Task, error) {
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, domain.NewValidationError("Data de vencimento inválida")
	}

	b.mu.Lock()
	idx := b.taskIndex(taskID)
	if idx < 0 {
		b.mu.Unlock()
		return nil, domain.NewNotFoundError("Tarefa")
	}
	updated := b.taskList[idx]
	b.mu.Unlock()

	updated.LeadID = req.LeadID
	updated.Title = req.Title
	updated.Description = req.Description
	updated.DueDate = dueDate
	updated.Priority = req.Priority

	if err := b.tasks.Update(ctx, &updated); err != nil {
		b.notifyError("Erro ao atualizar tarefa", err)
		return nil, domain.NewInternalError(err)
	}

	b.mu.Lock()
	if idx := b.taskIndex(taskID); idx >= 0 {
		b.taskList[idx] = updated
	}
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Tarefa atualizada!", Message: "A tarefa foi atualizada com sucesso.", Variant: notify.VariantDefault})
	return &updated, nil
}

// ToggleTask flips a task's completion flag.
func (b *Board) ToggleTask(ctx context.Context, taskID string) (*models.Task, error) {
	b.mu.Lock()
	idx := b.taskIndex(taskID)
	if idx < 0 {
		b.mu.Unlock()
		return nil, domain.NewNotFoundError("Tarefa")
	}
	updated := b.taskList[idx]
	b.mu.Unlock()

	updated.Completed = !updated.Completed

	if err := b.tasks.SetCompleted(ctx, b.userID, taskID, updated.Completed); err != nil {
		b.notifyError("Erro ao atualizar tarefa", err)
		return nil, domain.NewInternalError(err)
	}

	b.mu.Lock()
	if idx := b.taskIndex(taskID); idx >= 0 {
		b.taskList[idx] = updated
	}
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Tarefa atualizada!", Message: "O status da tarefa foi alterado.", Variant: notify.VariantDefault})
	return &updated, nil
}

// DeleteTask removes the task remotely, then locally.
func (b *Board) DeleteTask(ctx context.Context, taskID string) error {
	b.mu.Lock()
	idx := b.taskIndex(taskID)
	b.mu.Unlock()
	if idx < 0 {
		return domain.NewNotFoundError("Tarefa")
	}

	if err := b.tasks.Delete(ctx, b.userID, taskID); err != nil {
		b.notifyError("Erro ao excluir tarefa", err)
		return domain.NewInternalError(err)
	}

	b.mu.Lock()
	kept := b.taskList[:0:0]
	for _, task := range b.taskList {
		if task.ID != taskID {
			kept = append(kept, task)
		}
	}
	b.taskList = kept
	b.mu.Unlock()

	b.notifier.Notify(notify.Notice{Title: "Tarefa excluída!", Message: "A tarefa foi removida.", Variant: notify.VariantDestructive})
	return nil
}

// leadIndex and taskIndex expect b.mu held.
func (b *Board) leadIndex(leadID string) int {
	for i := range b.leadList {
		if b.leadList[i].ID == leadID {
			return i
		}
	}
	return -1
}

func (b *Board) taskIndex(taskID string) int {
	for i := range b.taskList {
		if b.taskList[i].ID == taskID {
			return i
		}
	}
	return -1
}

func (b *Board) notifyError(title string, err error) {
	b.log.Error(title, "user_id", b.userID, "error", err)
	b.notifier.Notify(notify.Notice{Title: title, Message: err.Error(), Variant: notify.VariantDestructive})
}

func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
