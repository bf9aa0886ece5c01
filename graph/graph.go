// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/state"
)

// Graph errors.
var (
	// ErrCycle is returned by Compile when the dependency edges form a cycle.
	ErrCycle = errors.New("graph: dependency cycle")

	// ErrUnknownNode is returned when an edge references a node that was
	// not added to the graph.
	ErrUnknownNode = errors.New("graph: unknown node")

	// ErrDuplicateNode is returned when a node is added twice.
	ErrDuplicateNode = errors.New("graph: node already added")

	// ErrClosed is returned by RunFrame after Close.
	ErrClosed = errors.New("graph: closed")
)

// Queue executes closed command lists in order.
type Queue interface {
	Submit(ctx context.Context, lists []*cmdlist.List) error
}

// Option configures a Graph.
type Option func(*Graph)

// WithParallel records Execute calls on a pool of workers. Values below 1
// keep the graph sequential.
func WithParallel(workers int) Option {
	return func(g *Graph) {
		g.parallel = workers > 0
		g.workers = workers
	}
}

// WithStrictRanges makes transitions over subresources in mixed states fail
// instead of splitting into per-subresource barriers.
func WithStrictRanges() Option {
	return func(g *Graph) { g.strict = true }
}

// WithLogger sets the graph logger. The default is framegraph.ComponentLogger("graph").
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// WithBinderCache shares a binder cache between graphs.
func WithBinderCache(c *binder.Cache) Option {
	return func(g *Graph) {
		if c != nil {
			g.binders = c
		}
	}
}

// FromConfig applies the [graph] section of the configuration.
func FromConfig(c config.Graph) Option {
	return func(g *Graph) {
		if c.Parallel {
			WithParallel(c.Workers)(g)
		}
		g.strict = c.StrictRanges
	}
}

type nodeState struct {
	node  Node
	index int
	mode  TaskMode
	deps  []*nodeState

	initialized bool
	initErr     error

	list   *cmdlist.List
	forks  []*cmdlist.List
	nforks int

	// per frame
	failed  bool
	skipped bool
}

// fork returns the next reusable fork list of the node.
func (ns *nodeState) fork(g *Graph) *cmdlist.List {
	if ns.nforks == len(ns.forks) {
		l := cmdlist.New(cmdlist.Graphics, g.newTracker(false))
		l.SetName(fmt.Sprintf("%s/fork%d", ns.node.Name(), len(ns.forks)))
		ns.forks = append(ns.forks, l)
	}
	l := ns.forks[ns.nforks]
	ns.nforks++
	if l.State() == cmdlist.Closed {
		_ = l.Reset(nil)
	}
	return l
}

// Graph is the frame orchestrator. It is NOT safe for concurrent use;
// RunFrame calls must be serialized.
type Graph struct {
	dev   gxapi.Device
	queue Queue
	log   *slog.Logger

	parallel bool
	workers  int
	strict   bool
	pool     worker.DynamicWorkerPool

	binders  *binder.Cache
	registry *state.Registry

	nodes    []*nodeState
	index    map[Node]*nodeState
	edges    map[[2]int]bool
	order    []*nodeState
	compiled bool
	closed   bool
	frame    uint64
	results  map[*nodeState]executeResult
}

// New creates an empty graph recording for dev and submitting to queue.
func New(dev gxapi.Device, queue Queue, opts ...Option) *Graph {
	g := &Graph{
		dev:      dev,
		queue:    queue,
		log:      framegraph.ComponentLogger("graph"),
		binders:  binder.NewCache(0),
		registry: state.NewRegistry(),
		index:    make(map[Node]*nodeState),
		edges:    make(map[[2]int]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// workerPool returns the recording pool, starting it on the first parallel
// frame.
func (g *Graph) workerPool() worker.DynamicWorkerPool {
	if g.pool == nil {
		g.pool = worker.NewDynamicWorkerPool(g.workers, 256, 1*time.Second)
	}
	return g.pool
}

// Close stops the recording workers and drops the node command lists.
// RunFrame fails with ErrClosed afterwards. Calling Close again is a no-op.
func (g *Graph) Close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.pool != nil {
		g.pool.Stop()
		g.pool = nil
	}
	for _, ns := range g.nodes {
		ns.list, ns.forks, ns.nforks = nil, nil, 0
	}
	clear(g.results)
	g.log.Debug("graph closed", "frames", g.frame)
}

// Registry returns the frame-global resource state registry.
func (g *Graph) Registry() *state.Registry { return g.registry }

// Binders returns the binder cache.
func (g *Graph) Binders() *binder.Cache { return g.binders }

// Parallel reports whether Execute runs on the worker pool.
func (g *Graph) Parallel() bool { return g.parallel }

// Frame returns the number of frames run so far.
func (g *Graph) Frame() uint64 { return g.frame }

// AddNode adds n to the graph.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.index[n]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name())
	}
	ns := &nodeState{node: n, index: len(g.nodes)}
	g.nodes = append(g.nodes, ns)
	g.index[n] = ns
	g.compiled = false
	return nil
}

func (g *Graph) addEdge(from, to Node) error {
	a, ok := g.index[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, from.Name())
	}
	b, ok := g.index[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, to.Name())
	}
	key := [2]int{a.index, b.index}
	if !g.edges[key] {
		g.edges[key] = true
		b.deps = append(b.deps, a)
		g.compiled = false
	}
	return nil
}

// Compile orders the nodes topologically and initializes new nodes. Ties
// keep the order nodes were added in.
func (g *Graph) Compile() error {
	indeg := make([]int, len(g.nodes))
	downs := make([][]*nodeState, len(g.nodes))
	for _, ns := range g.nodes {
		for _, d := range ns.deps {
			indeg[ns.index]++
			downs[d.index] = append(downs[d.index], ns)
		}
	}
	var ready []*nodeState
	for _, ns := range g.nodes {
		if indeg[ns.index] == 0 {
			ready = append(ready, ns)
		}
	}
	order := make([]*nodeState, 0, len(g.nodes))
	for len(ready) > 0 {
		// Pick the earliest added ready node.
		best := 0
		for i, ns := range ready {
			if ns.index < ready[best].index {
				best = i
			}
		}
		ns := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, ns)
		for _, d := range downs[ns.index] {
			indeg[d.index]--
			if indeg[d.index] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return fmt.Errorf("%w among %d nodes", ErrCycle, len(g.nodes)-len(order))
	}

	for _, ns := range order {
		if ns.initialized {
			continue
		}
		ns.initialized = true
		ec := &EngineContext{logger: g.nodeLogger(ns)}
		ns.initErr = g.guard(func() error { return ns.node.Initialize(ec) })
		ns.mode = ec.mode
		if ns.initErr != nil {
			g.log.Warn("node initialize failed", "node", ns.node.Name(), "err", ns.initErr)
		}
	}
	g.order = order
	g.compiled = true
	g.log.Info("graph compiled", "nodes", len(order), "parallel", g.parallel)
	return nil
}

func (g *Graph) nodeLogger(ns *nodeState) *slog.Logger {
	return g.log.With("node", ns.node.Name())
}

// guard runs fn and converts a panic into an error. Contract violations
// keep their *gxapi.ContractError type.
func (g *Graph) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*gxapi.ContractError); ok {
				err = ce
				return
			}
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", &PanicError{Value: r}, e)
				return
			}
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

// newTracker returns a tracker for a node list. Sequential primary lists
// read the committed states directly; parallel and fork lists start
// unknown and are reconciled at commit.
func (g *Graph) newTracker(based bool) *state.Tracker {
	var opts []state.Option
	if based {
		opts = append(opts, state.WithBase(g.registry.Lookup))
	}
	if g.strict {
		opts = append(opts, state.WithStrictRanges())
	}
	return state.NewTracker(opts...)
}

// prepareList readies the primary list of ns for recording.
func (g *Graph) prepareList(ns *nodeState) {
	ns.nforks = 0
	if ns.list == nil {
		ns.list = cmdlist.New(cmdlist.Graphics, g.newTracker(!g.parallel))
		ns.list.SetName(ns.node.Name())
		return
	}
	if ns.list.State() == cmdlist.Recording {
		_ = ns.list.Close()
	}
	_ = ns.list.Reset(nil)
}

// closeAll ends recording of the node's lists, whatever state they are in.
func closeAll(ns *nodeState) {
	if ns.list != nil && ns.list.State() == cmdlist.Recording {
		_ = ns.list.Close()
	}
	for _, f := range ns.forks[:ns.nforks] {
		if f.State() == cmdlist.Recording {
			_ = f.Close()
		}
	}
}

func (g *Graph) fail(report *FrameReport, ns *nodeState, phase Phase, err error) {
	ns.failed = true
	ne := &NodeError{Node: ns.node.Name(), Phase: phase, Err: err}
	report.Errors = append(report.Errors, ne)
	g.log.Warn("node failed", "node", ne.Node, "phase", string(phase), "err", err)
}

func (g *Graph) skip(report *FrameReport, ns *nodeState) {
	ns.skipped = true
	report.Skipped = append(report.Skipped, ns.node.Name())
}

func upstreamDown(ns *nodeState) bool {
	for _, d := range ns.deps {
		if d.failed || d.skipped {
			return true
		}
	}
	return false
}

// RunFrame builds, records and submits one frame.
//
// Node failures are reported in the returned FrameReport and never abort
// the frame. The error is non-nil only when ctx is done, the graph does
// not compile, submission fails or the graph is closed.
func (g *Graph) RunFrame(ctx context.Context) (*FrameReport, error) {
	if g.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !g.compiled {
		if err := g.Compile(); err != nil {
			return nil, err
		}
	}
	frame := g.frame
	g.frame++
	report := &FrameReport{Frame: frame}

	for _, ns := range g.order {
		ns.failed, ns.skipped = false, false
		if ns.initErr != nil {
			g.fail(report, ns, PhaseInitialize, ns.initErr)
			continue
		}
		if err := g.guard(func() error { ns.node.Reset(); return nil }); err != nil {
			g.fail(report, ns, PhaseReset, err)
		}
	}

	// Setup publishes ports and always runs in dependency order.
	var runnable []*nodeState
	for _, ns := range g.order {
		if ns.failed {
			continue
		}
		if upstreamDown(ns) {
			g.skip(report, ns)
			continue
		}
		sc := &SetupContext{g: g, node: ns.node.Name(), frame: frame, log: g.nodeLogger(ns)}
		err := g.guard(func() error { return ns.node.Setup(sc) })
		switch {
		case errors.Is(err, ErrSkip):
			g.skip(report, ns)
		case err != nil:
			g.fail(report, ns, PhaseSetup, err)
		default:
			runnable = append(runnable, ns)
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	g.initResults()
	if g.parallel {
		g.executeParallel(runnable, frame)
		// Lists are committed in dependency order. Dependents of a node
		// that failed while recording concurrently are dropped here.
		for _, ns := range runnable {
			if upstreamDown(ns) {
				g.skip(report, ns)
				continue
			}
			g.finishExecute(report, ns)
			if !ns.failed && !ns.skipped {
				g.commit(report, ns)
			}
		}
	} else {
		for _, ns := range runnable {
			if upstreamDown(ns) {
				g.skip(report, ns)
				continue
			}
			g.execute(ns, frame)
			g.finishExecute(report, ns)
			if !ns.failed && !ns.skipped {
				g.commit(report, ns)
			}
		}
	}

	if len(report.lists) == 0 {
		return report, nil
	}
	if err := g.queue.Submit(ctx, report.lists); err != nil {
		return report, fmt.Errorf("graph: submit frame %d: %w", frame, err)
	}
	g.log.Debug("frame submitted", "frame", frame, "lists", report.Lists, "barriers", report.Barriers,
		"executed", len(report.Executed), "skipped", len(report.Skipped), "failed", len(report.Errors))
	return report, nil
}

// executeResult is the outcome of one Execute call, kept until commit.
type executeResult struct {
	err error
}

// execute records ns. Its outcome is stored for finishExecute.
func (g *Graph) execute(ns *nodeState, frame uint64) {
	g.prepareList(ns)
	rc := &RenderContext{ns: ns, g: g, frame: frame, log: g.nodeLogger(ns)}
	err := g.guard(func() error { return ns.node.Execute(rc) })
	closeAll(ns)
	g.results[ns] = executeResult{err: err}
}

func (g *Graph) executeParallel(runnable []*nodeState, frame uint64) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	pool := g.workerPool()
	for i, ns := range runnable {
		g.prepareList(ns)
		wg.Add(1)
		nsCap := ns
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				rc := &RenderContext{ns: nsCap, g: g, frame: frame, log: g.nodeLogger(nsCap)}
				err := g.guard(func() error { return nsCap.node.Execute(rc) })
				closeAll(nsCap)
				mu.Lock()
				g.results[nsCap] = executeResult{err: err}
				mu.Unlock()
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (g *Graph) initResults() {
	if g.results == nil {
		g.results = make(map[*nodeState]executeResult)
	}
	clear(g.results)
}

// finishExecute turns the stored outcome of ns into report entries.
func (g *Graph) finishExecute(report *FrameReport, ns *nodeState) {
	res, ok := g.results[ns]
	if !ok {
		return
	}
	delete(g.results, ns)
	switch {
	case errors.Is(res.err, ErrSkip):
		g.skip(report, ns)
	case res.err != nil:
		g.fail(report, ns, PhaseExecute, res.err)
	}
}

// commit reconciles the node's lists with the registry and queues them,
// each preceded by a prelude list when reconciliation needs transitions.
func (g *Graph) commit(report *FrameReport, ns *nodeState) {
	lists := append([]*cmdlist.List{ns.list}, ns.forks[:ns.nforks]...)
	for _, l := range lists {
		if prelude := g.registry.Commit(l.Tracker()); len(prelude) > 0 {
			pl := cmdlist.New(cmdlist.Graphics, nil)
			pl.SetName(l.Name() + "/prelude")
			pl.ResourceBarrier(prelude...)
			_ = pl.Close()
			report.add(pl)
		}
		report.add(l)
	}
	report.Executed = append(report.Executed, ns.node.Name())
}
