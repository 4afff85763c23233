package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumipallolabs/disko/internal/config"
	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
	"github.com/lumipallolabs/disko/internal/scanner"
	"github.com/lumipallolabs/disko/internal/stats"
)

// ErrTraversalRunning is returned for operations that need a finished walk
var ErrTraversalRunning = errors.New("cannot delete while traversing")

// ErrDeleteRunning is returned by StartScan and Delete while a deletion is in progress
var ErrDeleteRunning = errors.New("a deletion is in progress")

// progressInterval is how often a running traversal reports progress
const progressInterval = 100 * time.Millisecond

// Controller manages the core application logic without UI dependencies
type Controller struct {
	mu sync.RWMutex

	root string
	cfg  *config.Config

	// State
	tree      *reftree.Tree[model.Entry]
	cursor    *Cursor
	traversal *Traversal
	scan      ScanState
	freed     FreedState
	deleting  bool

	// Internal services
	newScanner   func(scanner.Options) scanner.Scanner
	remover      Remover
	statsManager *stats.Manager
}

// Option customizes a Controller
type Option func(*Controller)

// WithRemover replaces the filesystem remover
func WithRemover(rm Remover) Option {
	return func(c *Controller) { c.remover = rm }
}

// WithScanner replaces the walker constructor
func WithScanner(fn func(scanner.Options) scanner.Scanner) Option {
	return func(c *Controller) { c.newScanner = fn }
}

// WithStats sets the freed-space statistics store
func WithStats(m *stats.Manager) Option {
	return func(c *Controller) { c.statsManager = m }
}

// NewController creates a controller for the directory at root
func NewController(root string, cfg *config.Config, opts ...Option) *Controller {
	c := &Controller{
		root:    root,
		cfg:     cfg,
		tree:    reftree.New[model.Entry](),
		remover: OSRemover{},
		newScanner: func(opts scanner.Options) scanner.Scanner {
			return scanner.NewWalker(opts)
		},
	}
	c.cursor = NewCursor(c.tree, cfg.Mode())
	for _, opt := range opts {
		opt(c)
	}
	if c.statsManager != nil {
		c.freed.Lifetime = c.statsManager.FreedLifetime()
	}
	return c
}

// RootPath returns the explored directory
func (c *Controller) RootPath() string {
	return c.root
}

// Tree returns the shared entry tree
func (c *Controller) Tree() *reftree.Tree[model.Entry] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree
}

// Cursor returns the navigation cursor
func (c *Controller) Cursor() *Cursor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// ScanState returns the current scan state
func (c *Controller) ScanState() ScanState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scan
}

// FreedState returns the current freed space state
func (c *Controller) FreedState() FreedState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.freed
}

// Running reports whether a traversal is in progress
func (c *Controller) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.traversal != nil && c.traversal.Running()
}

// StartScan begins a traversal into a fresh tree. The returned channel
// carries a StartedEvent, ProgressEvents and a final FinishedEvent, then
// closes.
func (c *Controller) StartScan(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()

	if c.traversal != nil && c.traversal.Running() {
		c.mu.Unlock()
		return nil, ErrTraversalRunning
	}
	if c.deleting {
		c.mu.Unlock()
		return nil, ErrDeleteRunning
	}

	// Reset state for new scan
	c.tree = reftree.New[model.Entry]()
	c.cursor = NewCursor(c.tree, c.cursor.Mode())
	w := c.newScanner(c.cfg.ScanOptions())
	c.scan = ScanState{
		Phase:     PhaseScanning,
		StartTime: time.Now(),
	}
	c.traversal = StartTraversal(ctx, w, c.root, c.tree)
	t, tree := c.traversal, c.tree

	c.mu.Unlock()

	if c.statsManager != nil {
		c.statsManager.SetLastPath(c.root)
	}

	eventCh := make(chan Event, 100)
	go c.runScan(t, w, tree, eventCh)

	return eventCh, nil
}

// runScan forwards traversal progress until it finishes
func (c *Controller) runScan(t *Traversal, w scanner.Scanner, tree *reftree.Tree[model.Entry], eventCh chan Event) {
	defer close(eventCh)

	logging.Debug.Printf("[Controller] Starting scan of %s", c.root)
	eventCh <- StartedEvent{Path: c.root}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p := w.Progress()
			c.recordProgress(p)
			select {
			case eventCh <- ProgressEvent(p):
			default:
				// Channel full, drop event
			}

		case <-t.Done():
			c.recordProgress(w.Progress())
			eventCh <- c.finish(t, tree)
			return
		}
	}
}

func (c *Controller) recordProgress(p scanner.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scan.Progress = p
}

// finish records the final phase and builds the FinishedEvent
func (c *Controller) finish(t *Traversal, tree *reftree.Tree[model.Entry]) FinishedEvent {
	ev := FinishedEvent{Stopped: t.Stopped()}
	if err := t.Err(); err != nil && !(ev.Stopped && errors.Is(err, context.Canceled)) {
		ev.Err = err
	}
	if root := tree.Root(); root != nil {
		ev.Totals = root.Data()
	}

	c.mu.Lock()
	c.scan.EndTime = time.Now()
	if ev.Stopped {
		c.scan.Phase = PhaseStopped
	} else {
		c.scan.Phase = PhaseComplete
	}
	ev.Elapsed = c.scan.Elapsed()
	c.mu.Unlock()

	logging.Debug.Printf("[Controller] Scan finished in %v (stopped=%v err=%v)", ev.Elapsed, ev.Stopped, ev.Err)
	return ev
}

// StopScan stops a running traversal and waits for it to exit
func (c *Controller) StopScan() {
	c.mu.RLock()
	t := c.traversal
	c.mu.RUnlock()

	if t != nil && t.Running() {
		t.Stop()
	}
}

// Delete removes the children at indices of the cursor's directory.
// Indices are child positions as reported by EntryView.Index. The event
// describes whatever was removed even when some entries failed.
func (c *Controller) Delete(indices []int) (DeletedEvent, error) {
	c.mu.Lock()
	if c.traversal != nil && c.traversal.Running() {
		c.mu.Unlock()
		return DeletedEvent{}, ErrTraversalRunning
	}
	if c.deleting {
		c.mu.Unlock()
		return DeletedEvent{}, ErrDeleteRunning
	}
	// the tree stays in place until deleting is cleared
	c.deleting = true
	tree, cursor, rm := c.tree, c.cursor, c.remover
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.deleting = false
		c.mu.Unlock()
	}()

	parent, err := cursor.Node()
	if err != nil {
		return DeletedEvent{}, err
	}

	deleted, err := DeleteEntries(tree, parent, indices, rm)
	ev := DeletedEvent{
		Paths:   deleted.Paths,
		Sizes:   deleted.Sizes,
		Entries: deleted.Entries,
	}

	freedBytes := deleted.Sizes.Disk
	c.mu.Lock()
	c.freed.add(freedBytes)
	ev.SessionFreed = c.freed.Session
	ev.TotalFreed = c.freed.Lifetime
	c.mu.Unlock()

	if c.statsManager != nil && len(deleted.Paths) > 0 {
		c.statsManager.AddFreed(freedBytes, uint64(len(deleted.Paths)))
	}
	return ev, err
}

// Stop cleans up resources
func (c *Controller) Stop() {
	c.StopScan()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statsManager != nil {
		_ = c.statsManager.Close()
	}
}
