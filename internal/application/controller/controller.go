package controller

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/mbeckers/freightsim-go/internal/application/actions"
	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

const (
	// DefaultQueueSize bounds both FIFO queues crossing the thread boundary.
	DefaultQueueSize = 1000

	// DefaultTickRate is the pace in ticks per second until tick_rate.update.
	DefaultTickRate = 10.0

	// stoppedSleep is the idle interval while the simulation is not running.
	stoppedSleep = 100 * time.Millisecond

	// panicBackoff throttles recovery after an aborted tick so a programming
	// bug cannot spin into a crash loop.
	panicBackoff = time.Second
)

// EventSink receives every engine event for archival. A nil sink disables
// archiving.
type EventSink interface {
	Append(events []world.Event) error
}

// EventQuerier is the optional read side of an EventSink. Sinks that archive
// to a queryable store implement it to serve event.query.
type EventQuerier interface {
	Query(eventType string, fromTick, toTick int64, limit int) ([]world.Event, error)
}

// MetricsObserver samples world counters after each tick.
type MetricsObserver interface {
	Observe(w *world.World)
}

// Options configures a controller.
type Options struct {
	TickRate  float64
	QueueSize int
	Seed      int64
	Archive   EventSink
	Metrics   MetricsObserver
}

type handlerFunc func(c *Controller, a actions.Action)

// Controller owns the world and runs the action/tick loop on a single
// goroutine. The transport talks to it exclusively through the two bounded
// queues; nothing else crosses the boundary.
type Controller struct {
	world *world.World
	seed  int64

	running bool
	paused  bool

	tickRate float64
	limiter  *rate.Limiter

	actionQueue chan actions.Action
	signalQueue chan actions.Signal

	registry map[string]handlerFunc

	archive EventSink
	metrics MetricsObserver
}

// New creates a controller around an existing world.
func New(w *world.World, opts Options) *Controller {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Controller{
		world:       w,
		seed:        opts.Seed,
		tickRate:    opts.TickRate,
		limiter:     rate.NewLimiter(rate.Limit(opts.TickRate), 1),
		actionQueue: make(chan actions.Action, opts.QueueSize),
		signalQueue: make(chan actions.Signal, opts.QueueSize),
		registry:    defaultRegistry(),
		archive:     opts.Archive,
		metrics:     opts.Metrics,
	}
}

// World returns the controller-owned world. Callers outside the controller
// goroutine must not touch it while the loop runs; it exists for setup and
// tests.
func (c *Controller) World() *world.World { return c.world }

// Running reports whether the simulation is advancing.
func (c *Controller) Running() bool { return c.running }

// CurrentTick returns the world's tick counter.
func (c *Controller) CurrentTick() int64 { return c.world.Clock.Tick }

// Signals returns the outbound queue the transport drains.
func (c *Controller) Signals() <-chan actions.Signal { return c.signalQueue }

// SubmitAction enqueues one action without blocking. A full queue is an
// overflow error the transport reports back to its client.
func (c *Controller) SubmitAction(a actions.Action) error {
	select {
	case c.actionQueue <- a:
		return nil
	default:
		return fmt.Errorf("action queue full (%d pending)", cap(c.actionQueue))
	}
}

// emit pushes a signal without blocking. Overflow drops the signal; the log
// line is the only trace, since the queue that would carry an error signal is
// the one that is full.
func (c *Controller) emit(sig actions.Signal) {
	select {
	case c.signalQueue <- sig:
	default:
		log.Printf("signal queue full, dropping %s", sig.Signal)
	}
}

// Run loops until the context is cancelled: drain actions, step when running,
// pace via the rate limiter, idle-sleep when stopped. The current tick always
// completes before the loop exits.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.drainActions()

		if c.running && !c.paused {
			c.safeStep()
			if err := c.limiter.Wait(ctx); err != nil {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(stoppedSleep):
		}
	}
}

// drainActions applies every pending action in FIFO order.
func (c *Controller) drainActions() {
	for {
		select {
		case a := <-c.actionQueue:
			c.dispatch(a)
		default:
			return
		}
	}
}

func (c *Controller) dispatch(a actions.Action) {
	handler, ok := c.registry[a.Action]
	if !ok {
		c.emit(actions.NewError(actions.CodeUnknownAction, "unknown action "+a.Action))
		return
	}
	handler(c, a)
}

// safeStep advances one tick with panic recovery. A panicking tick emits its
// tick.start and nothing else; the loop resumes after a backoff.
func (c *Controller) safeStep() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tick %d panic: %v\n%s", c.world.Clock.Tick, r, debug.Stack())
			time.Sleep(panicBackoff)
		}
	}()

	c.emit(actions.New(actions.SignalTickStart, map[string]interface{}{
		"tick": c.world.Clock.Tick + 1,
	}))

	result := c.world.Step()
	c.publish(result)

	c.emit(actions.New(actions.SignalTickEnd, map[string]interface{}{
		"tick": result.TickData.Tick,
	}))
}

// publish converts a step result into signals. Package and site events carry
// dedicated signal names; everything else arrives as event.created.
func (c *Controller) publish(result *world.StepResult) {
	if c.archive != nil {
		if err := c.archive.Append(result.Events); err != nil {
			log.Printf("event archive: %v", err)
		}
	}

	for _, event := range result.Events {
		switch event.Type {
		case world.EventPackageCreated, world.EventPackageExpired,
			world.EventPackagePickedUp, world.EventPackageDelivered,
			world.EventSiteStatsUpdate:
			c.emit(actions.New(event.Type, event.Data))
		default:
			c.emit(actions.New(actions.SignalEventCreated, map[string]interface{}{
				"type": event.Type,
				"tick": event.Tick,
				"data": event.Data,
			}))
		}
	}

	for _, diff := range result.AgentDiffs {
		c.emit(actions.New(actions.SignalAgentUpdated, map[string]interface{}{
			"agent_id": string(diff.AgentID),
			"changes":  diff.Data,
		}))
	}

	for _, update := range result.BuildingUpdates {
		c.emit(actions.New(actions.SignalBuildingUpdated, map[string]interface{}{
			"building_id": string(update.BuildingID),
			"building":    update.Data,
		}))
	}

	if c.metrics != nil {
		c.metrics.Observe(c.world)
	}
}

// BuildWorld creates a world around a graph with the standard agent roster:
// the singleton broker plus one observer agent per site.
func BuildWorld(g *graph.Graph, dtSeconds float64, seed int64) *world.World {
	w := world.New(g, dtSeconds, seed)
	if err := w.AddAgent(broker.New("broker-1")); err != nil {
		log.Printf("registering broker: %v", err)
	}
	for _, site := range w.Sites() {
		agentID := shared.AgentID("observer-" + string(site.BuildingID()))
		if err := w.AddAgent(world.NewBuildingAgent(agentID, site.BuildingID())); err != nil {
			log.Printf("registering site observer: %v", err)
		}
	}
	return w
}

// replaceWorld swaps in a new world built from a graph.
func (c *Controller) replaceWorld(g *graph.Graph, dtSeconds float64, seed int64) {
	c.world = BuildWorld(g, dtSeconds, seed)
	c.seed = seed
}
