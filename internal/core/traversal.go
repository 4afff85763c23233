package core

import (
	"context"
	"sync/atomic"

	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
	"github.com/lumipallolabs/disko/internal/scanner"
)

// Traversal runs one walk in a background goroutine
type Traversal struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
	done    chan struct{}
	err     error // written before done is closed
}

// StartTraversal begins populating tree from root and returns immediately
func StartTraversal(ctx context.Context, s scanner.Scanner, root string, tree *reftree.Tree[model.Entry]) *Traversal {
	ctx, cancel := context.WithCancel(ctx)
	t := &Traversal{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()
		t.err = s.Walk(ctx, root, tree)
		logging.Debug.Printf("[Traversal] %s finished (stopped=%v err=%v)", root, t.stopped.Load(), t.err)
	}()

	return t
}

// Stop asks the walk to end and waits for the goroutine to exit. Directories
// already processed stay in the tree.
func (t *Traversal) Stop() {
	t.stopped.Store(true)
	t.cancel()
	<-t.done
}

// Stopped reports whether Stop was called
func (t *Traversal) Stopped() bool {
	return t.stopped.Load()
}

// Running reports whether the walk goroutine is still active
func (t *Traversal) Running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Done is closed when the walk ends
func (t *Traversal) Done() <-chan struct{} {
	return t.done
}

// Err returns the walk's error once Done is closed. A stopped walk reports
// context.Canceled.
func (t *Traversal) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
