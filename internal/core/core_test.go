package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/disko/internal/config"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
	"github.com/lumipallolabs/disko/internal/scanner"
	"github.com/lumipallolabs/disko/internal/stats"
)

func makeTree(t *testing.T, files map[string]int) string {
	t.Helper()
	root := t.TempDir()
	for name, size := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(full, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, make([]byte, size), 0644))
	}
	return root
}

func scan(t *testing.T, root string) *reftree.Tree[model.Entry] {
	t.Helper()
	tree := reftree.New[model.Entry]()
	w := scanner.NewWalker(scanner.Options{Workers: 2})
	require.NoError(t, w.Walk(context.Background(), root, tree))
	return tree
}

func indexOf(t *testing.T, n *reftree.Node[model.Entry], name string) int {
	t.Helper()
	for i, e := range n.ChildrenData() {
		if e.Name == name {
			return i
		}
	}
	t.Fatalf("no child %q", name)
	return -1
}

// fakeRemover records calls and fails for selected paths
type fakeRemover struct {
	mu      sync.Mutex
	fail    map[string]error
	removed []string
}

func (f *fakeRemover) Remove(path string) error    { return f.record(path) }
func (f *fakeRemover) RemoveAll(path string) error { return f.record(path) }

func (f *fakeRemover) record(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[filepath.Base(path)]; err != nil {
		return err
	}
	f.removed = append(f.removed, path)
	return nil
}

func TestDeleteScenario(t *testing.T) {
	root := makeTree(t, map[string]int{"b/c": 100, "d": 50})
	tree := scan(t, root)
	a := tree.Root()
	require.Equal(t, uint64(150), a.Data().Sizes.Apparent)

	bIdx := indexOf(t, a, "b")
	b, _ := a.ChildAt(bIdx)
	deleted, err := DeleteEntries(tree, a, []int{bIdx}, OSRemover{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "b")}, deleted.Paths)
	assert.Equal(t, uint64(100), deleted.Sizes.Apparent)
	assert.Equal(t, uint64(2), deleted.Entries)

	assert.Equal(t, uint64(50), a.Data().Sizes.Apparent)
	assert.Equal(t, uint64(1), a.Data().Descendants)
	require.Equal(t, 1, a.Len())
	assert.Equal(t, "d", a.ChildrenData()[0].Name)

	_, statErr := os.Stat(filepath.Join(root, "b"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	// the removed subtree is unreachable from the tree but intact below b
	assert.Nil(t, b.ParentNode())
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "c", b.ChildrenData()[0].Name)
}

func TestDeleteMultipleIndices(t *testing.T) {
	root := makeTree(t, map[string]int{"x": 10, "y": 20, "z": 40, "keep": 5})
	tree := scan(t, root)
	a := tree.Root()

	x, y, z := indexOf(t, a, "x"), indexOf(t, a, "y"), indexOf(t, a, "z")
	rm := &fakeRemover{}
	deleted, err := DeleteEntries(tree, a, []int{x, z, x, y}, rm)
	require.NoError(t, err)

	assert.Len(t, rm.removed, 3, "duplicates are ignored")
	assert.Equal(t, uint64(70), deleted.Sizes.Apparent)
	assert.Equal(t, uint64(5), a.Data().Sizes.Apparent)
	assert.Equal(t, 1, a.Len())
}

func TestDeleteIndicesDescending(t *testing.T) {
	root := makeTree(t, map[string]int{"p": 1, "q": 1, "r": 1})
	tree := scan(t, root)
	a := tree.Root()
	before := a.ChildrenData()

	rm := &fakeRemover{}
	_, err := DeleteEntries(tree, a, []int{0, 2, 1}, rm)
	require.NoError(t, err)

	assert.Zero(t, a.Len())
	assert.Equal(t, []string{before[2].Path, before[1].Path, before[0].Path}, rm.removed)
}

func TestDeletePartialFailure(t *testing.T) {
	root := makeTree(t, map[string]int{"ok": 10, "bad": 20, "sub/f": 40})
	tree := scan(t, root)
	a := tree.Root()

	rm := &fakeRemover{fail: map[string]error{"bad": os.ErrPermission}}
	indices := []int{indexOf(t, a, "ok"), indexOf(t, a, "bad"), indexOf(t, a, "sub")}
	deleted, err := DeleteEntries(tree, a, indices, rm)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), filepath.Join(root, "bad"))

	assert.Len(t, deleted.Paths, 2, "successful deletions are kept")
	assert.Equal(t, uint64(20), a.Data().Sizes.Apparent)
	assert.Equal(t, uint64(1), a.Data().Descendants)
	assert.Equal(t, "bad", a.ChildrenData()[0].Name)
}

func TestDeleteBadIndex(t *testing.T) {
	root := makeTree(t, map[string]int{"f": 1})
	tree := scan(t, root)

	_, err := DeleteEntries(tree, tree.Root(), []int{5}, &fakeRemover{})
	assert.ErrorIs(t, err, ErrNoSuchChild)
	assert.Equal(t, 1, tree.Root().Len())
}

func TestDeleteSubtractsFromAllAncestors(t *testing.T) {
	root := makeTree(t, map[string]int{"l1/l2/l3/big": 1000, "l1/small": 1})
	tree := scan(t, root)
	a := tree.Root()
	l1, _ := a.ChildAt(indexOf(t, a, "l1"))
	l2, _ := l1.ChildAt(indexOf(t, l1, "l2"))

	_, err := DeleteEntries(tree, l2, []int{indexOf(t, l2, "l3")}, &fakeRemover{})
	require.NoError(t, err)

	for _, n := range []*reftree.Node[model.Entry]{a, l1, l2} {
		var sum model.Sizes
		var count uint64
		for _, c := range n.ChildrenData() {
			sum = sum.Add(c.Sizes)
			count += c.Descendants + 1
		}
		assert.Equal(t, sum, n.Data().Sizes, n.Data().Name)
		assert.Equal(t, count, n.Data().Descendants, n.Data().Name)
	}
	assert.Equal(t, uint64(1), a.Data().Sizes.Apparent)
}

func TestCursorEmptyTree(t *testing.T) {
	c := NewCursor(reftree.New[model.Entry](), model.SizeDisk)
	_, err := c.Current()
	assert.ErrorIs(t, err, ErrNoCursor)
	assert.ErrorIs(t, c.Up(), ErrNoCursor)
	assert.ErrorIs(t, c.Enter(0), ErrNoCursor)
	_, err = c.Preview(0)
	assert.ErrorIs(t, err, ErrNoCursor)
}

func TestCursorNavigation(t *testing.T) {
	root := makeTree(t, map[string]int{"small": 1, "big/inner": 300, "mid": 100})
	tree := scan(t, root)
	c := NewCursor(tree, model.SizeApparent)

	listing, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, -1, listing.Dir.Index)
	var names []string
	for _, v := range listing.Children {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"big", "mid", "small"}, names)

	big := listing.Children[0]
	preview, err := c.Preview(big.Index)
	require.NoError(t, err)
	require.Len(t, preview, 1)
	assert.Equal(t, "inner", preview[0].Name)

	assert.ErrorIs(t, c.Enter(listing.Children[1].Index), ErrNotDirectory)
	assert.ErrorIs(t, c.Enter(99), ErrNoSuchChild)
	_, err = c.Preview(-1)
	assert.ErrorIs(t, err, ErrNoSuchChild)
	assert.ErrorIs(t, c.Up(), ErrAtRoot)

	require.NoError(t, c.Enter(big.Index))
	listing, err = c.Current()
	require.NoError(t, err)
	assert.Equal(t, "big", listing.Dir.Name)
	assert.Equal(t, big.Index, listing.Dir.Index)
	assert.Equal(t, []string{filepath.Base(root), "big"}, c.Path())

	require.NoError(t, c.Up())
	listing, err = c.Current()
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), listing.Dir.Name)
}

func TestCursorParentGone(t *testing.T) {
	root := makeTree(t, map[string]int{"d/e/f": 1})
	tree := scan(t, root)
	c := NewCursor(tree, model.SizeDisk)

	a := tree.Root()
	require.NoError(t, c.Enter(indexOf(t, a, "d")))
	d, err := c.Node()
	require.NoError(t, err)
	require.NoError(t, tree.RemoveSubtree(d))

	assert.ErrorIs(t, c.Up(), ErrParentGone)
}

func TestCursorToggleMode(t *testing.T) {
	c := NewCursor(reftree.New[model.Entry](), model.SizeDisk)
	assert.Equal(t, model.SizeApparent, c.ToggleMode())
	assert.Equal(t, model.SizeApparent, c.Mode())
}

// blockingScanner attaches a root and waits until cancelled
type blockingScanner struct {
	started chan struct{}
}

func (b *blockingScanner) Walk(ctx context.Context, root string, tree *reftree.Tree[model.Entry]) error {
	_, _ = tree.SetRoot(model.Entry{Name: "blocked", Path: root, Kind: model.KindDirectory})
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingScanner) Progress() scanner.Progress {
	return scanner.Progress{DirsScanned: 1}
}

func TestTraversalStop(t *testing.T) {
	s := &blockingScanner{started: make(chan struct{})}
	tree := reftree.New[model.Entry]()
	tr := StartTraversal(context.Background(), s, "/x", tree)

	<-s.started
	assert.True(t, tr.Running())
	assert.Nil(t, tr.Err())

	tr.Stop()
	assert.False(t, tr.Running())
	assert.True(t, tr.Stopped())
	assert.ErrorIs(t, tr.Err(), context.Canceled)
	assert.False(t, tree.IsEmpty(), "partial tree survives")

	select {
	case <-tr.Done():
	default:
		t.Fatal("Done must be closed after Stop")
	}
}

func TestTraversalCompletes(t *testing.T) {
	root := makeTree(t, map[string]int{"a/b": 3})
	tree := reftree.New[model.Entry]()
	tr := StartTraversal(context.Background(), scanner.NewWalker(scanner.Options{}), root, tree)

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("traversal did not finish")
	}
	assert.NoError(t, tr.Err())
	assert.False(t, tr.Stopped())
	assert.Equal(t, uint64(3), tree.Root().Data().Sizes.Apparent)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Threads = 2
	cfg.CountDirSize = false
	return cfg
}

func drain(t *testing.T, events <-chan Event) (started bool, finished FinishedEvent) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return started, finished
			}
			switch e := ev.(type) {
			case StartedEvent:
				started = true
			case FinishedEvent:
				finished = e
			}
		case <-timeout:
			t.Fatal("event stream did not close")
		}
	}
}

func TestControllerScanAndDelete(t *testing.T) {
	root := makeTree(t, map[string]int{"b/c": 100, "d": 50})
	statsFile := filepath.Join(t.TempDir(), "stats.json")
	sm := stats.NewManager(statsFile)
	ctrl := NewController(root, testConfig(), WithStats(sm))
	defer ctrl.Stop()

	events, err := ctrl.StartScan(context.Background())
	require.NoError(t, err)
	started, finished := drain(t, events)

	assert.True(t, started)
	assert.NoError(t, finished.Err)
	assert.False(t, finished.Stopped)
	assert.Equal(t, uint64(150), finished.Totals.Sizes.Apparent)
	assert.Equal(t, PhaseComplete, ctrl.ScanState().Phase)
	assert.False(t, ctrl.Running())

	listing, err := ctrl.Cursor().Current()
	require.NoError(t, err)
	var bIdx int
	for _, v := range listing.Children {
		if v.Name == "b" {
			bIdx = v.Index
		}
	}

	ev, err := ctrl.Delete([]int{bIdx})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ev.Sizes.Apparent)
	assert.Equal(t, ev.Sizes.Disk, ev.SessionFreed)
	assert.Equal(t, ev.Sizes.Disk, ctrl.FreedState().Session)
	assert.Equal(t, uint64(50), ctrl.Tree().Root().Data().Sizes.Apparent)
	assert.Equal(t, root, sm.LastPath())
}

func TestControllerRefusesDeleteWhileTraversing(t *testing.T) {
	s := &blockingScanner{started: make(chan struct{})}
	ctrl := NewController(t.TempDir(), testConfig(),
		WithRemover(&fakeRemover{}),
		WithScanner(func(scanner.Options) scanner.Scanner { return s }))

	events, err := ctrl.StartScan(context.Background())
	require.NoError(t, err)
	<-s.started

	assert.True(t, ctrl.Running())
	_, err = ctrl.Delete([]int{0})
	assert.ErrorIs(t, err, ErrTraversalRunning)

	_, err = ctrl.StartScan(context.Background())
	assert.ErrorIs(t, err, ErrTraversalRunning)

	ctrl.StopScan()
	_, finished := drain(t, events)
	assert.True(t, finished.Stopped)
	assert.NoError(t, finished.Err, "stopping is not an error")
	assert.Equal(t, "blocked", finished.Totals.Name)
	assert.Equal(t, PhaseStopped, ctrl.ScanState().Phase)
}

// gateRemover blocks every removal until release is closed
type gateRemover struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateRemover) Remove(path string) error    { return g.wait() }
func (g *gateRemover) RemoveAll(path string) error { return g.wait() }

func (g *gateRemover) wait() error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

func TestControllerRefusesRescanWhileDeleting(t *testing.T) {
	root := makeTree(t, map[string]int{"b/c": 100, "d": 50})
	rm := &gateRemover{entered: make(chan struct{}, 1), release: make(chan struct{})}
	ctrl := NewController(root, testConfig(), WithRemover(rm))
	defer ctrl.Stop()

	events, err := ctrl.StartScan(context.Background())
	require.NoError(t, err)
	drain(t, events)
	tree := ctrl.Tree()

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Delete([]int{0})
		done <- err
	}()
	<-rm.entered

	_, err = ctrl.StartScan(context.Background())
	assert.ErrorIs(t, err, ErrDeleteRunning)
	_, err = ctrl.Delete([]int{1})
	assert.ErrorIs(t, err, ErrDeleteRunning)
	assert.Same(t, tree, ctrl.Tree(), "tree is not replaced mid-delete")

	close(rm.release)
	require.NoError(t, <-done)
	assert.Len(t, tree.Root().Children(), 1)

	events, err = ctrl.StartScan(context.Background())
	require.NoError(t, err, "rescan is allowed once the delete finished")
	drain(t, events)
}

func TestControllerDeleteBeforeScan(t *testing.T) {
	ctrl := NewController(t.TempDir(), testConfig())
	_, err := ctrl.Delete([]int{0})
	assert.ErrorIs(t, err, ErrNoCursor)
}

func TestScanState(t *testing.T) {
	assert.Equal(t, "scanning", PhaseScanning.String())
	assert.Equal(t, "unknown", ScanPhase(42).String())

	var s ScanState
	assert.Zero(t, s.Elapsed())

	s = ScanState{
		Phase:     PhaseComplete,
		StartTime: time.Unix(100, 0),
		EndTime:   time.Unix(102, 500),
	}
	assert.False(t, s.IsScanning())
	assert.Equal(t, 2*time.Second, s.Elapsed())

	var f FreedState
	f.add(10)
	f.add(5)
	assert.Equal(t, FreedState{Session: 15, Lifetime: 15}, f)
}
