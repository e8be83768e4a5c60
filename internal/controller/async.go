package controller

import "context"

// PendingAdd tracks an AddItem running in the background.
type PendingAdd struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// AddItemAsync starts AddItem on its own goroutine and returns at once.
// The caller keeps editing the input and deleting items meanwhile; the
// result is appended to whatever the list holds when the response lands.
func (c *Controller) AddItemAsync(ctx context.Context) *PendingAdd {
	ctx, cancel := context.WithCancel(ctx)
	p := &PendingAdd{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(p.done)
		defer cancel()
		p.err = c.AddItem(ctx)
	}()
	return p
}

// Done is closed once the add has finished, successfully or not.
func (p *PendingAdd) Done() <-chan struct{} { return p.done }

// Wait blocks until the add finishes and returns its error.
func (p *PendingAdd) Wait() error {
	<-p.done
	return p.err
}

// Err returns the result once Done is closed, nil before that.
func (p *PendingAdd) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Cancel abandons the call. If the creation service has not answered yet
// the add fails with context.Canceled and changes nothing.
func (p *PendingAdd) Cancel() { p.cancel() }
