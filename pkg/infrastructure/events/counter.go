package events

import "sync"

// TypeCounter tallies appended events per type
type TypeCounter struct {
	types  []string
	mu     sync.Mutex
	counts map[string]int
}

// NewTypeCounter counts the given event types and ignores the rest.
func NewTypeCounter(eventTypes ...string) *TypeCounter {
	c := &TypeCounter{
		types:  append([]string(nil), eventTypes...),
		counts: make(map[string]int, len(eventTypes)),
	}
	for _, t := range eventTypes {
		c.counts[t] = 0
	}
	return c
}

// Types returns the event types the counter listens for
func (c *TypeCounter) Types() []string {
	return append([]string(nil), c.types...)
}

func (c *TypeCounter) CanHandle(eventType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.counts[eventType]
	return ok
}

func (c *TypeCounter) Handle(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event.Type()]++
	return nil
}

// Counts returns a copy of the tallies
func (c *TypeCounter) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
