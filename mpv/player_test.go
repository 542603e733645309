package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mpvctl-cli/mpvctl/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePeer is a scripted stand-in for the player process: it serves one
// IPC connection on a real socket, answers every command through a
// pluggable handler, and can emit unsolicited events at will.
type fakePeer struct {
	socket    string
	ln        net.Listener
	connected chan struct{}

	mu       sync.Mutex
	conn     net.Conn
	commands [][]any

	// handle produces the response payload and error string for one
	// command; empty error string means success. after runs once the
	// response has been written, for scripting follow-up events.
	handle func(cmd []any) (any, string)
	after  func(cmd []any)
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "peer.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen %s: %v", socket, err)
	}

	f := &fakePeer{
		socket:    socket,
		ln:        ln,
		connected: make(chan struct{}),
	}
	go f.serve()

	t.Cleanup(func() {
		_ = ln.Close()
		f.closeConn()
	})
	return f
}

func (f *fakePeer) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	close(f.connected)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		handle, after := f.handle, f.after
		f.mu.Unlock()

		var data any
		errStr := ""
		if handle != nil {
			data, errStr = handle(req.Command)
		}
		if errStr == "" {
			errStr = protocol.ErrorSuccess
		}

		resp := map[string]any{"request_id": req.RequestID, "error": errStr}
		if data != nil {
			resp["data"] = data
		}
		f.send(resp)

		if after != nil {
			after(req.Command)
		}
	}
}

func (f *fakePeer) send(v map[string]any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		_, _ = f.conn.Write(append(payload, protocol.Delimiter))
	}
}

func (f *fakePeer) emit(name string, fields map[string]any) {
	<-f.connected

	ev := map[string]any{"event": name}
	for k, v := range fields {
		ev[k] = v
	}
	f.send(ev)
}

func (f *fakePeer) closeConn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
}

// sent reports how many commands with the given verb reached the peer.
func (f *fakePeer) sent(verb string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, cmd := range f.commands {
		if len(cmd) > 0 && cmd[0] == verb {
			n++
		}
	}
	return n
}

func attachedPlayer(t *testing.T, peer *fakePeer, interval time.Duration) *Player {
	t.Helper()

	p := New(Options{
		Path:               "mpv",
		SocketDir:          t.TempDir(),
		TimeUpdateInterval: interval,
	})
	if err := p.Attach(peer.socket); err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPlayerProperties(t *testing.T) {
	Convey("Given an attached session", t, func() {
		peer := newFakePeer(t)
		p := attachedPlayer(t, peer, time.Hour)

		Convey("When a property is read", func() {
			peer.mu.Lock()
			peer.handle = func(cmd []any) (any, string) {
				if len(cmd) == 2 && cmd[0] == "get_property" && cmd[1] == "volume" {
					return 55.0, ""
				}
				return nil, ""
			}
			peer.mu.Unlock()

			data, err := p.GetProperty("volume")

			Convey("Then the peer's payload comes back", func() {
				So(err, ShouldBeNil)
				So(data, ShouldEqual, 55.0)
			})
		})

		Convey("When the peer rejects a command", func() {
			peer.mu.Lock()
			peer.handle = func(cmd []any) (any, string) {
				return nil, "property not found"
			}
			peer.mu.Unlock()

			_, err := p.GetProperty("no-such-property")

			Convey("Then the failure surfaces as a command error", func() {
				var cmdErr *CommandError
				So(errors.As(err, &cmdErr), ShouldBeTrue)
				So(cmdErr.Reason, ShouldEqual, "property not found")
			})
		})

		Convey("When properties are observed", func() {
			first, err1 := p.ObserveProperty("volume")
			again, err2 := p.ObserveProperty("volume")
			second, err3 := p.ObserveProperty("duration")

			Convey("Then ids start at 1 and repeat observation is idempotent", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(first, ShouldEqual, 1)
				So(again, ShouldEqual, first)
				So(second, ShouldEqual, 2)
			})

			Convey("Then unobserving works once per property", func() {
				So(p.UnobserveProperty("volume"), ShouldBeNil)
				So(p.UnobserveProperty("volume"), ShouldNotBeNil)
			})
		})

		Convey("When attaching again", func() {
			Convey("Then the session refuses", func() {
				So(errors.Is(p.Attach(peer.socket), ErrAlreadyRunning), ShouldBeTrue)
			})
		})
	})
}

func TestPlayerLoad(t *testing.T) {
	Convey("Given an attached session", t, func() {
		peer := newFakePeer(t)
		p := attachedPlayer(t, peer, time.Hour)

		Convey("When a load reaches the loaded state", func() {
			peer.mu.Lock()
			peer.after = func(cmd []any) {
				if len(cmd) > 0 && cmd[0] == "loadfile" {
					peer.emit(protocol.EventStartFile, nil)
					peer.emit(protocol.EventFileLoaded, nil)
				}
			}
			peer.mu.Unlock()

			err := p.Load("clip.mp4", LoadReplace)

			Convey("Then it succeeds only after the event sequence completes", func() {
				So(err, ShouldBeNil)
				So(peer.sent("loadfile"), ShouldEqual, 1)
			})
		})

		Convey("When the peer abandons the file", func() {
			peer.mu.Lock()
			peer.after = func(cmd []any) {
				if len(cmd) > 0 && cmd[0] == "loadfile" {
					peer.emit(protocol.EventStartFile, nil)
					peer.emit(protocol.EventEndFile, map[string]any{"reason": "error"})
				}
			}
			peer.mu.Unlock()

			err := p.Load("clip.mp4", LoadReplace)

			Convey("Then the load error names the source", func() {
				var loadErr *LoadError
				So(errors.As(err, &loadErr), ShouldBeTrue)
				So(loadErr.Source, ShouldEqual, "clip.mp4")
			})
		})

		Convey("When the source scheme is outside the allow-list", func() {
			err := p.Load("foo://x", LoadReplace)

			Convey("Then it fails without contacting the peer", func() {
				So(errors.Is(err, ErrUnsupportedSource), ShouldBeTrue)
				So(peer.sent("loadfile"), ShouldEqual, 0)
			})
		})

		Convey("When appending behind existing playlist entries", func() {
			peer.mu.Lock()
			peer.handle = func(cmd []any) (any, string) {
				if len(cmd) == 2 && cmd[0] == "get_property" && cmd[1] == "playlist-count" {
					return 3.0, ""
				}
				return nil, ""
			}
			peer.mu.Unlock()

			err := p.Load("extra.mp4", LoadAppend)

			Convey("Then it returns as soon as the command is accepted", func() {
				So(err, ShouldBeNil)
				So(peer.sent("loadfile"), ShouldEqual, 1)
			})
		})

		Convey("When the peer never emits the expected events", func() {
			peer.mu.Lock()
			peer.after = func(cmd []any) {
				if len(cmd) > 0 && cmd[0] == "loadfile" {
					for i := 0; i < watchBudget; i++ {
						peer.emit(protocol.EventTracksChanged, nil)
					}
				}
			}
			peer.mu.Unlock()

			err := p.Load("clip.mp4", LoadReplace)

			Convey("Then the wait times out on the frame budget", func() {
				So(errors.Is(err, ErrOperationTimeout), ShouldBeTrue)
			})
		})
	})
}

func TestPlayerEvents(t *testing.T) {
	Convey("Given an attached session with a subscriber", t, func() {
		peer := newFakePeer(t)
		p := attachedPlayer(t, peer, time.Hour)

		events := make(chan protocol.Event, 16)
		p.Subscribe(func(ev protocol.Event) { events <- ev })

		Convey("When the peer emits events around a time position change", func() {
			peer.emit(protocol.EventPropertyChange, map[string]any{
				"id": 0, "name": protocol.PropertyTimePos, "data": 12.5,
			})
			peer.emit(protocol.EventSeek, nil)
			peer.emit(protocol.EventTracksChanged, nil)

			var received []string
			for ev := range events {
				received = append(received, ev.Name)
				if ev.Name == protocol.EventTracksChanged {
					break
				}
			}

			Convey("Then delivery is ordered and the position change is absorbed", func() {
				So(received, ShouldResemble, []string{protocol.EventSeek, protocol.EventTracksChanged})

				pos, ok := p.TimePos().Get()
				So(ok, ShouldBeTrue)
				So(pos, ShouldEqual, 12.5)
			})
		})

		Convey("When the connection dies under the session", func() {
			peer.closeConn()

			var first protocol.Event
			select {
			case first = <-events:
			case <-time.After(2 * time.Second):
				t.Fatal("no event after peer close")
			}

			Convey("Then subscribers see exactly one crash notification", func() {
				So(first.Name, ShouldEqual, protocol.EventCrashed)

				select {
				case ev := <-events:
					t.Fatalf("unexpected extra event %q", ev.Name)
				case <-time.After(100 * time.Millisecond):
				}
			})

			Convey("Then the session is stopped and rejects commands", func() {
				So(p.IsRunning(), ShouldBeFalse)

				_, err := p.GetProperty("volume")
				So(errors.Is(err, ErrNotRunning), ShouldBeTrue)
			})
		})
	})
}

func TestPlayerTimeLoop(t *testing.T) {
	Convey("Given a fast position emitter", t, func() {
		subscribePositions := func(p *Player) chan any {
			positions := make(chan any, 16)
			p.Subscribe(func(ev protocol.Event) {
				if ev.Name == protocol.EventTimePosition {
					positions <- ev.Data()
				}
			})
			return positions
		}

		Convey("When the peer reports an unpaused position", func() {
			peer := newFakePeer(t)
			p := attachedPlayer(t, peer, 30*time.Millisecond)
			positions := subscribePositions(p)

			peer.emit(protocol.EventPropertyChange, map[string]any{
				"id": 0, "name": protocol.PropertyTimePos, "data": 42.0,
			})

			Convey("Then a synthesized position event is published", func() {
				select {
				case pos := <-positions:
					So(pos, ShouldEqual, 42.0)
				case <-time.After(2 * time.Second):
					t.Fatal("no position event")
				}
			})
		})

		Convey("When the peer reports paused", func() {
			peer := newFakePeer(t)
			peer.mu.Lock()
			peer.handle = func(cmd []any) (any, string) {
				if len(cmd) == 2 && cmd[0] == "get_property" && cmd[1] == "pause" {
					return true, ""
				}
				return nil, ""
			}
			peer.mu.Unlock()

			p := attachedPlayer(t, peer, 30*time.Millisecond)
			positions := subscribePositions(p)

			peer.emit(protocol.EventPropertyChange, map[string]any{
				"id": 0, "name": protocol.PropertyTimePos, "data": 42.0,
			})

			Convey("Then the emitter stays silent across several intervals", func() {
				select {
				case pos := <-positions:
					t.Fatalf("unexpected position event %v while paused", pos)
				case <-time.After(300 * time.Millisecond):
				}
			})
		})
	})
}

func TestPlayerQuit(t *testing.T) {
	Convey("Given an attached session", t, func() {
		peer := newFakePeer(t)
		p := attachedPlayer(t, peer, time.Hour)

		Convey("When the session is quit", func() {
			So(p.Quit(), ShouldBeNil)

			Convey("Then it stops and a second quit reports not running", func() {
				So(p.IsRunning(), ShouldBeFalse)
				So(errors.Is(p.Quit(), ErrNotRunning), ShouldBeTrue)
			})

			Convey("Then close stays tolerant of the stopped state", func() {
				So(p.Close(), ShouldBeNil)
			})
		})
	})
}
