package logging

import (
	"context"

	"go-dblog/internal/models"
)

// Chain passes a record through handlers in order until one of them stops
// propagation. Errors abort the dispatch and are returned as-is.
type Chain struct {
	handlers []RecordHandler
}

// NewChain creates a chain over handlers.
func NewChain(handlers ...RecordHandler) *Chain {
	return &Chain{handlers: handlers}
}

// Push appends h to the end of the chain.
func (c *Chain) Push(h RecordHandler) {
	c.handlers = append(c.handlers, h)
}

// IsHandling reports whether any handler accepts level.
func (c *Chain) IsHandling(level models.Level) bool {
	for _, h := range c.handlers {
		if h.IsHandling(level) {
			return true
		}
	}
	return false
}

// Handle dispatches record and reports whether a handler stopped it.
func (c *Chain) Handle(ctx context.Context, record models.LogRecord) (bool, error) {
	for _, h := range c.handlers {
		if !h.IsHandling(record.Level) {
			continue
		}
		stop, err := h.Handle(ctx, record)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}
