// Package notify delivers user-facing notices. The HTTP API surfaces them in
// responses; background workers push them through the slog-backed notifier.
package notify

import (
	"sync"

	"github.com/pipelinealfa/crm/pkg/logger"
)

// Notice variants.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notice is a single user-facing notification.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Variant string `json:"variant"`
}

// Notifier receives notices produced by services and workers.
type Notifier interface {
	Notify(notice Notice)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(notice Notice) {
	if notice.Variant == VariantDestructive {
		n.log.Warn("notice", "title", notice.Title, "message", notice.Message)
		return
	}
	n.log.Info("notice", "title", notice.Title, "message", notice.Message)
}

// Recorder captures notices for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Reset clears recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
