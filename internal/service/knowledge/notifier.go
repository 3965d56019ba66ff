// Package knowledge holds the seam to the document upload/delete subsystem.
// Chat state is independent of it; the core only relays its success events.
package knowledge

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier fans out knowledge-base lifecycle events to registered no-argument
// callbacks. Callbacks run synchronously in registration order.
type Notifier struct {
	mu       sync.Mutex
	baseID   string
	onUpload []func()
	onDelete []func()
	logger   *zap.Logger
}

// NewNotifier binds a notifier to one knowledge-base identifier.
func NewNotifier(baseID string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{baseID: baseID, logger: logger}
}

// BaseID returns the bound knowledge-base identifier.
func (n *Notifier) BaseID() string {
	return n.baseID
}

// OnUploadSuccess registers a callback for completed document uploads.
func (n *Notifier) OnUploadSuccess(fn func()) {
	n.mu.Lock()
	n.onUpload = append(n.onUpload, fn)
	n.mu.Unlock()
}

// OnDeleteSuccess registers a callback for completed document deletions.
func (n *Notifier) OnDeleteSuccess(fn func()) {
	n.mu.Lock()
	n.onDelete = append(n.onDelete, fn)
	n.mu.Unlock()
}

// NotifyUploadSuccess dispatches the upload callbacks.
func (n *Notifier) NotifyUploadSuccess() {
	n.logger.Info("knowledge base upload completed", zap.String("knowledgeBaseId", n.baseID))
	n.dispatch(n.snapshot(&n.onUpload))
}

// NotifyDeleteSuccess dispatches the delete callbacks.
func (n *Notifier) NotifyDeleteSuccess() {
	n.logger.Info("knowledge base delete completed", zap.String("knowledgeBaseId", n.baseID))
	n.dispatch(n.snapshot(&n.onDelete))
}

func (n *Notifier) snapshot(callbacks *[]func()) []func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	copied := make([]func(), len(*callbacks))
	copy(copied, *callbacks)
	return copied
}

func (n *Notifier) dispatch(callbacks []func()) {
	for _, fn := range callbacks {
		fn()
	}
}
