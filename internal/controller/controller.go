// Package controller owns the to-do list state: the pending input, the
// ordered items, and the store and creation-service side effects around
// every change.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/freetodo/internal/logging"
	"github.com/Makepad-fr/freetodo/internal/model"
	"github.com/Makepad-fr/freetodo/internal/store"
)

// DefaultStorageKey is the store key the list lives under.
const DefaultStorageKey = "todoItems"

// Creator turns free text into items. *remote.Client implements it.
type Creator interface {
	Create(ctx context.Context, input string) ([]model.Item, error)
}

// Controller is safe for concurrent use. Every mutation, together with its
// store write, happens under one lock, so the list and the stored copy are
// equal once a call returns. Calls to the Creator run without the lock.
type Controller struct {
	store      store.Store
	creator    Creator
	logger     *log.Logger
	key        string
	clearInput bool

	mu       sync.Mutex
	input    string
	items    []model.Item
	lastErr  error
	inFlight int

	subMu   sync.Mutex
	subs    []subscription
	nextSub int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic channel.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(c *Controller) {
		if key != "" {
			c.key = key
		}
	}
}

// WithClearInputOnAdd controls whether a successful add empties the pending
// input. Failed adds never touch it.
func WithClearInputOnAdd(clear bool) Option {
	return func(c *Controller) { c.clearInput = clear }
}

// New returns a controller with an empty list. Call Initialize to load the
// stored one.
func New(st store.Store, creator Creator, opts ...Option) *Controller {
	c := &Controller{
		store:      st,
		creator:    creator,
		logger:     logging.Discard(),
		key:        DefaultStorageKey,
		clearInput: true,
		items:      []model.Item{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize loads the list from the store. A missing, unreadable or
// malformed value yields an empty list; the problem only goes to the log.
func (c *Controller) Initialize(ctx context.Context) {
	items := []model.Item{}
	raw, err := c.store.Get(ctx, c.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.logger.Debug("no stored list", "key", c.key)
	case err != nil:
		c.logger.Error("read stored list", "key", c.key, "err", err)
	default:
		decoded, derr := model.DecodeList(raw)
		if derr != nil {
			c.logger.Warn("discarding stored list", "key", c.key, "err", derr)
		} else {
			items = decoded
		}
	}

	c.mu.Lock()
	c.items = items
	ev := c.eventLocked(ItemsChanged)
	c.mu.Unlock()

	c.logger.Debug("list loaded", "items", len(items))
	c.emit(ev)
}

// SetPendingInput replaces the text that the next add will send.
func (c *Controller) SetPendingInput(text string) {
	c.mu.Lock()
	if c.input == text {
		c.mu.Unlock()
		return
	}
	c.input = text
	ev := c.eventLocked(InputChanged)
	c.mu.Unlock()
	c.emit(ev)
}

// PendingInput returns the current input text.
func (c *Controller) PendingInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Items returns a copy of the list.
func (c *Controller) Items() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneList(c.items)
}

// Len returns the number of items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Busy reports whether an add is waiting on the creation service.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// LastError returns the most recent add or persist failure, cleared by the
// next successful mutation or by ClearError.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError drops the last failure, e.g. when the user dismisses it.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// AddItem sends the pending input to the creation service and appends what
// it returns to the end of the list as it is when the response arrives.
// On failure the list, the input and the store are left as they were and
// the error is returned; there is no retry.
func (c *Controller) AddItem(ctx context.Context) error {
	c.mu.Lock()
	input := c.input
	c.inFlight++
	started := c.eventLocked(AddStarted)
	c.mu.Unlock()
	c.emit(started)

	created, err := c.creator.Create(ctx, input)

	c.mu.Lock()
	c.inFlight--
	if err != nil {
		c.lastErr = err
		failed := c.eventLocked(AddFailed)
		failed.Err = err
		c.mu.Unlock()

		c.logger.Error("add failed", "input", input, "err", err)
		c.emit(failed)
		return fmt.Errorf("add: %w", err)
	}

	c.items = append(c.items, model.CloneList(created)...)
	if c.clearInput && c.input == input {
		c.input = ""
	}
	// The response is in; a cancelled caller must not skip the write.
	perr := c.persistLocked(context.WithoutCancel(ctx))
	c.lastErr = perr
	succeeded := c.eventLocked(AddSucceeded)
	succeeded.Added = model.CloneList(created)
	succeeded.Err = perr
	changed := c.eventLocked(ItemsChanged)
	c.mu.Unlock()

	c.logger.Debug("items added", "added", len(created), "total", len(changed.Items))
	c.emit(succeeded, changed)
	return perr
}

// DeleteItem removes the item at index, keeping the order of the rest, and
// writes the list back. An index outside [0, len) returns ErrInvalidIndex
// and changes nothing.
func (c *Controller) DeleteItem(ctx context.Context, index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, n)
	}
	next := make([]model.Item, 0, len(c.items)-1)
	next = append(next, c.items[:index]...)
	next = append(next, c.items[index+1:]...)
	c.items = next

	perr := c.persistLocked(ctx)
	c.lastErr = perr
	ev := c.eventLocked(ItemsChanged)
	ev.Err = perr
	c.mu.Unlock()

	c.logger.Debug("item deleted", "index", index, "total", len(ev.Items))
	c.emit(ev)
	return perr
}

// persistLocked writes the whole list. Callers hold c.mu.
func (c *Controller) persistLocked(ctx context.Context) error {
	b, err := model.EncodeList(c.items)
	if err == nil {
		err = c.store.Put(ctx, c.key, b)
	}
	if err != nil {
		c.logger.Error("persist failed", "key", c.key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (c *Controller) eventLocked(kind EventKind) Event {
	return Event{
		Kind:  kind,
		Items: model.CloneList(c.items),
		Input: c.input,
		Busy:  c.inFlight > 0,
	}
}
