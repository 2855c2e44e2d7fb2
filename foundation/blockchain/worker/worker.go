// Package worker implements the background maintenance of the relay node.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/state"
)

// pruneInterval represents the interval of dropping the transactions of
// blocks that fell out of the kept range.
const pruneInterval = time.Minute

// =============================================================================

// Worker manages the background workflows for the node.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	prune     chan bool
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:     st,
		ticker:    time.NewTicker(pruneInterval),
		shut:      make(chan struct{}),
		prune:     make(chan bool, 1),
		evHandler: ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.pruneOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalPrune starts a prune operation. If there is already a signal
// pending in the channel, just return since a prune operation will start.
func (w *Worker) SignalPrune() {
	select {
	case w.prune <- true:
	default:
	}
}

// =============================================================================

// pruneOperations handles pruning on the ticker and on demand.
func (w *Worker) pruneOperations() {
	w.evHandler("worker: pruneOperations: G started")
	defer w.evHandler("worker: pruneOperations: G completed")

	for {
		select {
		case <-w.prune:
			if !w.isShutdown() {
				w.runPruneOperation()
			}

		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPruneOperation()
			}

		case <-w.shut:
			w.evHandler("worker: pruneOperations: received shut signal")
			return
		}
	}
}

// runPruneOperation drops the transactions of old blocks.
func (w *Worker) runPruneOperation() {
	if err := w.state.Prune(); err != nil {
		w.evHandler("worker: runPruneOperation: ERROR: %s", err)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
