package postal

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Subsystem identifies one of libpostal's global subsystems.
type Subsystem int

const (
	SubsystemCore Subsystem = iota
	SubsystemParser
	SubsystemLanguageClassifier
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemCore:
		return "core"
	case SubsystemParser:
		return "parser"
	case SubsystemLanguageClassifier:
		return "language_classifier"
	}
	return "unknown"
}

// guard is the process-wide reference count of one subsystem.
type guard struct {
	kind    Subsystem
	mu      sync.Mutex
	refs    int
	datadir string
}

var guards = [...]*guard{
	SubsystemCore:               {kind: SubsystemCore},
	SubsystemParser:             {kind: SubsystemParser},
	SubsystemLanguageClassifier: {kind: SubsystemLanguageClassifier},
}

func guardFor(kind Subsystem) *guard { return guards[kind] }

// acquire runs the native setup on the first reference. An empty datadir
// means libpostal's compiled-in default on first setup and "no preference"
// afterwards.
func (g *guard) acquire(datadir string) error {
	if err := checkString("datadir", datadir); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refs == 0 {
		if !lib.available() {
			return ErrUnavailable
		}
		if !lib.setup(g.kind, datadir) {
			logger().Error("libpostal setup failed",
				zap.Stringer("subsystem", g.kind),
				zap.String("datadir", datadir))
			return &SetupError{Subsystem: g.kind, DataDir: datadir}
		}
		g.refs = 1
		g.datadir = datadir
		logger().Info("libpostal subsystem initialized",
			zap.Stringer("subsystem", g.kind),
			zap.String("datadir", datadir))
		return nil
	}

	if datadir != "" && datadir != g.datadir {
		// Models stay loaded from the first directory.
		logger().Warn("libpostal data directory changed while initialized",
			zap.Stringer("subsystem", g.kind),
			zap.String("previous", g.datadir),
			zap.String("datadir", datadir),
			zap.Int("refs", g.refs))
		g.datadir = datadir
	}
	g.refs++
	return nil
}

func (g *guard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refs == 0 {
		logger().Warn("libpostal release without acquire", zap.Stringer("subsystem", g.kind))
		return
	}
	g.refs--
	if g.refs == 0 {
		lib.teardown(g.kind)
		g.datadir = ""
		logger().Info("libpostal subsystem torn down", zap.Stringer("subsystem", g.kind))
	}
}

func (g *guard) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refs
}

func (g *guard) dir() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.datadir
}

// RefCount returns the number of live handles holding kind.
func RefCount(kind Subsystem) int {
	if kind < 0 || int(kind) >= len(guards) {
		return 0
	}
	return guardFor(kind).count()
}

// ref is one acquired reference. Closing it more than once is a no-op.
// Native calls made through the handle hold inflight for reading, so
// release waits for them before the guard can tear the subsystem down.
type ref struct {
	g        *guard
	closed   atomic.Bool
	inflight sync.RWMutex
}

func acquireRef(kind Subsystem, datadir string) (*ref, error) {
	g := guardFor(kind)
	if err := g.acquire(datadir); err != nil {
		return nil, err
	}
	return &ref{g: g}, nil
}

func (r *ref) release() {
	if r.closed.CompareAndSwap(false, true) {
		r.inflight.Lock()
		r.g.release()
		r.inflight.Unlock()
	}
}

// enter marks the start of a native call on r. A nil error must be
// paired with leave.
func (r *ref) enter() error {
	r.inflight.RLock()
	if r.closed.Load() {
		r.inflight.RUnlock()
		return ErrClosed
	}
	return nil
}

func (r *ref) leave() { r.inflight.RUnlock() }

func (r *ref) live() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}
