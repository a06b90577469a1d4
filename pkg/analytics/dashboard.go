// Package analytics computes the dashboard summary from a user's leads and
// tasks. Results are cached in Redis for a short window and invalidated on
// every board mutation.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pipelinealfa/crm/pkg/cache"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/pipeline"
)

const (
	cacheTTL          = 60 * time.Second
	topListLimit      = 5
	missingLeadName   = "Lead não encontrado"
	dashboardCacheKey = "dashboard:%s"
)

// Stats is the aggregate block at the top of the dashboard.
type Stats struct {
	TotalLeads     int     `json:"total_leads"`
	NewLeads       int     `json:"new_leads"`
	InContact      int     `json:"in_contact"`
	VisitScheduled int     `json:"visit_scheduled"`
	ProposalSent   int     `json:"proposal_sent"`
	Closed         int     `json:"closed"`
	ConversionRate float64 `json:"conversion_rate"`
	TodayTasks     int     `json:"today_tasks"`
	OverdueTasks   int     `json:"overdue_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
}

// UrgentTask is a task due today or overdue, annotated with its lead's name.
type UrgentTask struct {
	Task     models.Task `json:"task"`
	LeadName string      `json:"lead_name"`
	Overdue  bool        `json:"overdue"`
}

// Dashboard is the full dashboard payload.
type Dashboard struct {
	Stats         Stats         `json:"stats"`
	PriorityLeads []models.Lead `json:"priority_leads"`
	UrgentTasks   []UrgentTask  `json:"urgent_tasks"`
}

// Service computes dashboards with a Redis cache in front.
type Service struct {
	cache   *cache.Client
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

// NewService creates the dashboard service. cache may be nil, disabling
// caching; metrics may be nil.
func NewService(cacheClient *cache.Client, m *metrics.Metrics, log logger.Logger) *Service {
	return &Service{cache: cacheClient, metrics: m, log: log, now: time.Now}
}

// ForUser returns the user's dashboard, from cache when fresh.
func (s *Service) ForUser(ctx context.Context, userID string, leads []models.Lead, tasks []models.Task) *Dashboard {
	key := fmt.Sprintf(dashboardCacheKey, userID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var cached Dashboard
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				s.countCache("dashboard", true)
				return &cached
			}
		}
		s.countCache("dashboard", false)
	}

	dashboard := s.Compute(leads, tasks)

	if s.cache != nil {
		if raw, err := json.Marshal(dashboard); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), cacheTTL); err != nil {
				s.log.Warn("dashboard cache write failed", "user_id", userID, "error", err)
			}
		}
	}

	return dashboard
}

func (s *Service) countCache(cacheType string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		s.metrics.CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// Invalidate drops the cached dashboard after a board mutation.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf(dashboardCacheKey, userID)); err != nil {
		s.log.Warn("dashboard cache invalidation failed", "user_id", userID, "error", err)
	}
}

// Compute builds the dashboard from the given lists.
func (s *Service) Compute(leads []models.Lead, tasks []models.Task) *Dashboard {
	now := s.now()
	today := now.Truncate(24 * time.Hour)
	tomorrow := today.Add(24 * time.Hour)

	stats := Stats{TotalLeads: len(leads)}
	for _, lead := range leads {
		switch lead.Status {
		case pipeline.StageNew:
			stats.NewLeads++
		case pipeline.StageInContact:
			stats.InContact++
		case pipeline.StageVisit:
			stats.VisitScheduled++
		case pipeline.StageProposalSent:
			stats.ProposalSent++
		case pipeline.StageClosed:
			stats.Closed++
		}
	}
	if stats.TotalLeads > 0 {
		rate := float64(stats.Closed) / float64(stats.TotalLeads) * 100
		stats.ConversionRate = math.Round(rate*10) / 10
	}

	for _, task := range tasks {
		dueToday := !task.DueDate.Before(today) && task.DueDate.Before(tomorrow)
		if dueToday {
			stats.TodayTasks++
		}
		if task.DueDate.Before(now) && !task.Completed {
			stats.OverdueTasks++
		}
		if task.Completed {
			stats.CompletedTasks++
		}
	}

	priority := make([]models.Lead, 0, topListLimit)
	for _, lead := range leads {
		if lead.Priority == models.PriorityHigh && lead.Status != pipeline.StageClosed {
			priority = append(priority, lead)
			if len(priority) == topListLimit {
				break
			}
		}
	}

	leadNames := make(map[string]string, len(leads))
	for _, lead := range leads {
		leadNames[lead.ID] = lead.Name
	}

	urgent := make([]UrgentTask, 0)
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		overdue := task.DueDate.Before(now)
		dueToday := !task.DueDate.Before(today) && task.DueDate.Before(tomorrow)
		if !overdue && !dueToday {
			continue
		}

		name, ok := leadNames[task.LeadID]
		if !ok {
			// The lead may have been deleted from a stale view
			name = missingLeadName
		}
		urgent = append(urgent, UrgentTask{Task: task, LeadName: name, Overdue: overdue})
	}
	sort.Slice(urgent, func(i, j int) bool {
		return urgent[i].Task.DueDate.Before(urgent[j].Task.DueDate)
	})
	if len(urgent) > topListLimit {
		urgent = urgent[:topListLimit]
	}

	return &Dashboard{Stats: stats, PriorityLeads: priority, UrgentTasks: urgent}
}
