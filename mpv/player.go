package mpv

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/mpvctl-cli/mpvctl/log"
	"github.com/mpvctl-cli/mpvctl/protocol"
	"github.com/samber/mo"
)

// Player is one logical session against an mpv process: a single shared
// connection feeding the request ledger, the event router, and any live
// watchers. All session state lives on this struct; there are no
// package-level singletons.
type Player struct {
	opts Options

	mu       sync.Mutex
	running  bool
	conn     *Conn
	proc     *process
	socket   string
	watchers []*watcher
	observed map[string]int64
	nextSub  int64
	timePos  mo.Option[float64]
	stopTick chan struct{}

	ledger ledger
	router router
}

// New creates a session in the stopped state.
func New(opts Options) *Player {
	opts.withDefaults()
	return &Player{
		opts:     opts,
		observed: make(map[string]int64),
		nextSub:  1,
	}
}

// Start spawns the player process, waits for its IPC endpoint to bind,
// and connects the engine to it.
func (p *Player) Start() error {
	if p.IsRunning() {
		return ErrAlreadyRunning
	}

	socketPath, err := newSocketPath(p.opts.SocketDir)
	if err != nil {
		return err
	}

	proc, err := startProcess(p.opts.Path, buildArgs(p.opts, socketPath))
	if err != nil {
		return err
	}

	if err := proc.waitBound(); err != nil {
		_ = killProcess(proc.cmd)
		return err
	}
	if err := proc.waitForSocket(socketPath); err != nil {
		_ = killProcess(proc.cmd)
		return err
	}

	return p.connect(socketPath, proc)
}

// Attach connects the engine to an already-running player's socket
// without spawning a process. The attached session has no supervisor,
// so auto-restart does not apply to it.
func (p *Player) Attach(socketPath string) error {
	if p.IsRunning() {
		return ErrAlreadyRunning
	}
	return p.connect(socketPath, nil)
}

func (p *Player) connect(socketPath string, proc *process) error {
	conn, err := Dial(socketPath)
	if err != nil {
		if proc != nil {
			_ = killProcess(proc.cmd)
		}
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.proc = proc
	p.socket = socketPath
	p.running = true
	p.timePos = mo.None[float64]()
	p.stopTick = make(chan struct{})
	stop := p.stopTick
	p.mu.Unlock()

	conn.Listen(p.handleFrame, p.handleClose)

	// Reserved subscription id 0: the high-frequency time position,
	// intercepted before generic dispatch.
	if _, err := p.Command("observe_property", 0, protocol.PropertyTimePos); err != nil {
		log.Warnf("observe %s: %v", protocol.PropertyTimePos, err)
	}

	go p.timeLoop(stop)

	log.Infof("player session active on %s", socketPath)
	return nil
}

// IsRunning reports whether the session is active.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Socket returns the IPC socket path of the active session.
func (p *Player) Socket() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.socket
}

// TimePos returns the most recently observed playback position.
func (p *Player) TimePos() mo.Option[float64] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timePos
}

// Subscribe registers a handler for the session's event stream. Events
// are delivered in the exact order the peer emitted them; handlers run
// synchronously on the dispatch goroutine and must not block.
func (p *Player) Subscribe(fn EventFunc) int64 {
	return p.router.subscribe(fn)
}

// Unsubscribe removes a previously registered event handler.
func (p *Player) Unsubscribe(id int64) {
	p.router.unsubscribe(id)
}

// handleFrame is the single inbound dispatch point, run on the read loop.
func (p *Player) handleFrame(f *protocol.Frame) {
	// Watchers tap the raw frame stream first: every socket read counts
	// one tick against their budget, responses included.
	p.mu.Lock()
	kept := p.watchers[:0]
	for _, w := range p.watchers {
		if !w.observe(f) {
			kept = append(kept, w)
		}
	}
	p.watchers = kept
	p.mu.Unlock()

	if f.IsResponse {
		p.ledger.resolve(f)
		return
	}

	ev := f.Event
	if ev.Name == protocol.EventPropertyChange && ev.Property() == protocol.PropertyTimePos {
		p.mu.Lock()
		if v, ok := ev.Data().(float64); ok {
			p.timePos = mo.Some(v)
		} else {
			// data is null while no file is loaded
			p.timePos = mo.None[float64]()
		}
		p.mu.Unlock()
		return
	}

	p.router.dispatch(ev)
}

// handleClose runs exactly once when the connection dies out from under
// an active session. Pending requests and live watchers are failed
// rather than left to hang; subscribers receive a single crashed
// notification instead of an error.
func (p *Player) handleClose(reason error) {
	p.mu.Lock()
	wasRunning := p.running
	p.running = false
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
	watchers := p.watchers
	p.watchers = nil
	proc := p.proc
	p.mu.Unlock()

	if !wasRunning {
		// Teardown already handled by Quit.
		return
	}

	if reason != nil {
		log.Errorf("player connection lost: %v", reason)
	} else {
		log.Warn("player connection closed unexpectedly")
	}

	p.ledger.abandon(ErrNotRunning)
	for _, w := range watchers {
		w.abort(ErrNotRunning)
	}

	p.router.dispatch(protocol.Event{
		Name:   protocol.EventCrashed,
		Fields: map[string]any{"event": protocol.EventCrashed},
	})

	if p.opts.AutoRestart && proc != nil {
		go func() {
			if err := p.Start(); err != nil {
				log.Errorf("auto-restart: %v", err)
			}
		}()
	}
}

// Quit gracefully terminates the session: best-effort quit command,
// connection teardown, process reaping, and socket file cleanup.
func (p *Player) Quit() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.running = false
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
	conn := p.conn
	proc := p.proc
	socket := p.socket
	watchers := p.watchers
	p.watchers = nil
	p.mu.Unlock()

	_ = conn.Send(protocol.Request{Command: []any{"quit"}})
	_ = conn.Close()

	p.ledger.abandon(ErrNotRunning)
	for _, w := range watchers {
		w.abort(ErrNotRunning)
	}

	if proc != nil {
		proc.stop()
		_ = os.Remove(socket)
	}
	return nil
}

// Close is Quit tolerant of an already-stopped session.
func (p *Player) Close() error {
	if err := p.Quit(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}

// timeLoop periodically publishes the latest observed time position
// while playback is not paused. The raw property-change stream for
// time-pos never reaches subscribers; this emitter is the only surface
// for position updates, so subscribers see one value per interval
// instead of one per tick of the player clock.
func (p *Player) timeLoop(stop chan struct{}) {
	ticker := time.NewTicker(p.opts.TimeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			paused, err := p.GetPausedStatus()
			if err != nil || paused {
				continue
			}

			pos, ok := p.TimePos().Get()
			if !ok {
				continue
			}

			p.router.dispatch(protocol.Event{
				Name:   protocol.EventTimePosition,
				Fields: map[string]any{"event": protocol.EventTimePosition, "data": pos},
			})
		}
	}
}
