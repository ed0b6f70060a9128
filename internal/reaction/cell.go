// internal/reaction/cell.go
package reaction

import (
	"sync"

	"github.com/gestured/labstream/internal/models"
)

// Cell is a single-assignment holder for the session outcome. Both the
// push event and the fallback poll race to commit one; the first writer
// wins and every later attempt is a no-op. This makes the at-most-once
// rule structural instead of convention-enforced.
type Cell struct {
	mu      sync.Mutex
	outcome *models.Outcome
	done    chan struct{}
}

func NewCell() *Cell {
	return &Cell{done: make(chan struct{})}
}

// Set commits the outcome if none has been committed yet. Returns true
// only for the first successful writer.
func (c *Cell) Set(o models.Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outcome != nil {
		return false
	}
	snapshot := o
	c.outcome = &snapshot
	close(c.done)
	return true
}

// Get returns the committed outcome, if any.
func (c *Cell) Get() (models.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outcome == nil {
		return models.Outcome{}, false
	}
	return *c.outcome, true
}

// Done is closed the instant an outcome is committed.
func (c *Cell) Done() <-chan struct{} { return c.done }
