package controller

import "github.com/Makepad-fr/freetodo/internal/model"

// EventKind says what changed.
type EventKind int

const (
	ItemsChanged EventKind = iota + 1
	InputChanged
	AddStarted
	AddSucceeded
	AddFailed
)

func (k EventKind) String() string {
	switch k {
	case ItemsChanged:
		return "items-changed"
	case InputChanged:
		return "input-changed"
	case AddStarted:
		return "add-started"
	case AddSucceeded:
		return "add-succeeded"
	case AddFailed:
		return "add-failed"
	}
	return "unknown"
}

// Event is a snapshot sent to subscribers after a state change.
// Items and Added are copies; subscribers may keep them.
type Event struct {
	Kind  EventKind
	Items []model.Item
	Input string
	Added []model.Item
	Busy  bool
	Err   error
}

// Subscribe registers fn for every future event and returns a function that
// removes it. Callbacks run on the goroutine that made the change, after the
// controller lock is released, in registration order.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

type subscription struct {
	id int
	fn func(Event)
}

func (c *Controller) emit(events ...Event) {
	c.subMu.Lock()
	subs := append([]subscription(nil), c.subs...)
	c.subMu.Unlock()
	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}
