package scheduler

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/adpena/molt/internal/molterr"
)

// Group implements structured concurrency (spec §7): a group of tasks
// spawned together is joined together, cancelling every sibling as soon
// as one fails and re-raising the first failure with the rest chained
// (molterr.GroupError).
//
// Grounded on golang.org/x/sync/errgroup (already a teacher/pack
// dependency) for the "first error wins, context cancelled on failure"
// core; Group wraps it to additionally collect every failure in
// completion order, since errgroup itself only retains the first.
type Group struct {
	eg     *errgroup.Group
	cancel *CancelToken
	loop   *Loop

	mu       sync.Mutex
	failures []*molterr.Error
}

// NewGroup creates a task group whose children are cancelled together
// via a child of parent (or a fresh root token if parent is nil).
func NewGroup(loop *Loop, parent *CancelToken) *Group {
	var token *CancelToken
	if parent != nil {
		token = parent.Child()
	} else {
		token = NewCancelToken()
	}
	return &Group{eg: &errgroup.Group{}, cancel: token, loop: loop}
}

// Cancel exposes the group's cancel token for children to observe.
func (g *Group) Cancel() *CancelToken { return g.cancel }

// Go spawns fn as a task under this group. fn returning a non-nil
// *molterr.Error cancels the group and is recorded; a panic is converted
// to a *molterr.Error the same way Task.run does.
func (g *Group) Go(fn func(*Task) *molterr.Error) *Task {
	t := Spawn(g.loop, g.cancel, func(task *Task) {
		if err := fn(task); err != nil {
			task.fail(err)
		}
	})
	g.eg.Go(func() error {
		<-t.Done()
		if _, err := t.Result(); err != nil {
			g.mu.Lock()
			g.failures = append(g.failures, err)
			g.mu.Unlock()
			g.cancel.Cancel()
			return err
		}
		return nil
	})
	return t
}

// Wait blocks until every spawned child has reached a terminal state,
// then returns the aggregated failure (nil if every child succeeded).
func (g *Group) Wait() *molterr.GroupError {
	_ = g.eg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return molterr.NewGroupError(g.failures)
}
