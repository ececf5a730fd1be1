package usecase

import (
	"sync"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// Notices collects notifications raised while serving one request.
type Notices struct {
	mu    sync.Mutex
	items []model.Notification
}

// Notify records a notice.
func (n *Notices) Notify(level model.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, model.Notification{Level: level, Message: message})
}

// Items returns a copy of the recorded notices.
func (n *Notices) Items() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.items...)
}

type discardNotifier struct{}

func (discardNotifier) Notify(model.NotificationLevel, string) {}

func notifierOrDiscard(n Notifier) Notifier {
	if n == nil {
		return discardNotifier{}
	}
	return n
}
