package mpv

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/mpvctl-cli/mpvctl/protocol"
)

// LoadMode selects how a loaded source interacts with the playlist.
type LoadMode string

const (
	LoadReplace    LoadMode = "replace"
	LoadAppend     LoadMode = "append"
	LoadAppendPlay LoadMode = "append-play"
)

// NavMode selects how playlist navigation treats the edges of the list.
type NavMode string

const (
	NavWeak  NavMode = "weak"
	NavForce NavMode = "force"
)

// SeekMode selects how a seek offset is interpreted.
type SeekMode string

const (
	SeekRelative        SeekMode = "relative"
	SeekAbsolute        SeekMode = "absolute"
	SeekRelativePercent SeekMode = "relative-percent"
	SeekAbsolutePercent SeekMode = "absolute-percent"
)

// supportedSchemes is the fixed allow-list of URL schemes a load target
// may carry. Anything else fails fast without contacting the player.
var supportedSchemes = []string{
	"http", "https", "file", "ftp", "rtmp", "rtsp", "ytdl", "lavf",
}

// validateSource checks a load target against the scheme allow-list.
// Targets without a scheme are local paths and always pass.
func validateSource(source string) error {
	if !strings.Contains(source, "://") {
		return nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	if slices.Contains(supportedSchemes, strings.ToLower(u.Scheme)) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedSource, u.Scheme)
}

// Command sends one raw positional command and blocks until the matching
// response arrives. The payload of a successful response is returned
// as decoded JSON; a peer-reported failure surfaces as a CommandError.
func (p *Player) Command(atoms ...any) (any, error) {
	p.mu.Lock()
	if !p.running || p.conn == nil {
		p.mu.Unlock()
		return nil, ErrNotRunning
	}
	conn := p.conn
	p.mu.Unlock()

	id, ch := p.ledger.register()
	if err := conn.Send(protocol.Request{Command: atoms, RequestID: id}); err != nil {
		p.ledger.drop(id)
		return nil, err
	}

	res := <-ch
	return res.data, res.err
}

// GetProperty retrieves the current value of a player property.
func (p *Player) GetProperty(name string) (any, error) {
	return p.Command("get_property", name)
}

// SetProperty assigns a player property.
func (p *Player) SetProperty(name string, value any) error {
	_, err := p.Command("set_property", name, value)
	return err
}

// AddProperty adds a delta to a numeric player property.
func (p *Player) AddProperty(name string, delta any) error {
	_, err := p.Command("add", name, delta)
	return err
}

// MultiplyProperty scales a numeric player property.
func (p *Player) MultiplyProperty(name string, factor any) error {
	_, err := p.Command("multiply", name, factor)
	return err
}

// CycleProperty steps a player property through its value cycle.
func (p *Player) CycleProperty(name string) error {
	_, err := p.Command("cycle", name)
	return err
}

// ObserveProperty asks the player to report every change of a property.
// Subscription ids are assigned sequentially starting at 1; id 0 is
// reserved for the engine's own time-position observation. Observing an
// already-observed property returns its live id.
func (p *Player) ObserveProperty(name string) (int64, error) {
	p.mu.Lock()
	if id, ok := p.observed[name]; ok {
		p.mu.Unlock()
		return id, nil
	}
	id := p.nextSub
	p.nextSub++
	p.mu.Unlock()

	if _, err := p.Command("observe_property", id, name); err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.observed[name] = id
	p.mu.Unlock()
	return id, nil
}

// UnobserveProperty removes a live property subscription.
func (p *Player) UnobserveProperty(name string) error {
	p.mu.Lock()
	id, ok := p.observed[name]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("property %q is not observed", name)
	}

	if _, err := p.Command("unobserve_property", id); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.observed, name)
	p.mu.Unlock()
	return nil
}

// Load replaces or extends the playlist with one source and blocks until
// the player actually reached (or definitively failed to reach) the
// loaded state. The loadfile response alone only confirms acceptance;
// completion is observable solely through the event stream.
func (p *Player) Load(source string, mode LoadMode, options ...string) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	if err := validateSource(source); err != nil {
		return err
	}
	if mode == "" {
		mode = LoadReplace
	}

	playlistLen := -1
	if mode == LoadAppend || mode == LoadAppendPlay {
		if v, err := p.GetProperty("playlist-count"); err == nil {
			if n, ok := v.(float64); ok {
				playlistLen = int(n)
			}
		}
	}

	atoms := []any{"loadfile", source, string(mode)}
	if len(options) > 0 {
		atoms = append(atoms, strings.Join(options, ","))
	}

	// Appending behind existing entries emits no load events; nothing to
	// wait for. Same for append-play when something is already playing.
	if (mode == LoadAppend && playlistLen >= 1) || (mode == LoadAppendPlay && playlistLen > 1) {
		_, err := p.Command(atoms...)
		return err
	}

	return p.await(watchSpec{
		start:   protocol.EventStartFile,
		success: []string{protocol.EventFileLoaded},
		failure: []string{protocol.EventEndFile},
	}, source, atoms)
}

// LoadPlaylist loads a playlist file, waiting for the first entry to
// start unless the playlist is merely appended.
func (p *Player) LoadPlaylist(path string, mode LoadMode) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	if mode == "" {
		mode = LoadReplace
	}

	atoms := []any{"loadlist", path, string(mode)}
	if mode == LoadAppend {
		_, err := p.Command(atoms...)
		return err
	}

	return p.await(watchSpec{
		start:   protocol.EventStartFile,
		success: []string{protocol.EventFileLoaded},
		failure: []string{protocol.EventEndFile},
	}, path, atoms)
}

// PlaylistJump starts playback of the playlist entry at index.
func (p *Player) PlaylistJump(index int) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}

	return p.await(watchSpec{
		start:   protocol.EventStartFile,
		success: []string{protocol.EventFileLoaded},
		failure: []string{protocol.EventEndFile},
	}, fmt.Sprintf("playlist entry %d", index), []any{"playlist-play-index", index})
}

// PlaylistNext advances to the next playlist entry.
func (p *Player) PlaylistNext(mode NavMode) error {
	return p.navigate("playlist-next", mode)
}

// PlaylistPrev returns to the previous playlist entry.
func (p *Player) PlaylistPrev(mode NavMode) error {
	return p.navigate("playlist-prev", mode)
}

func (p *Player) navigate(command string, mode NavMode) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	if mode == "" {
		mode = NavWeak
	}

	return p.await(watchSpec{
		start: protocol.EventStartFile,
		// Navigation completes on whichever the player emits first.
		success: []string{protocol.EventFileLoaded, protocol.EventPlaybackRestart},
		failure: []string{protocol.EventEndFile},
	}, command, []any{command, string(mode)})
}

// Seek moves the playback position and blocks until the player restarts
// playback at the target, fails early if the track layout changes
// underneath the seek.
func (p *Player) Seek(offset float64, mode SeekMode) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	if mode == "" {
		mode = SeekRelative
	}

	return p.await(watchSpec{
		start:   protocol.EventSeek,
		success: []string{protocol.EventPlaybackRestart},
		failure: []string{protocol.EventTracksChanged},
	}, fmt.Sprintf("seek %v %s", offset, mode), []any{"seek", offset, string(mode)})
}

// await registers a watcher before issuing the triggering command, so no
// event emitted between acceptance and observation can be missed, then
// blocks until the watcher reaches a terminal state.
func (p *Player) await(spec watchSpec, source string, atoms []any) error {
	w := newWatcher(spec, source)

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.watchers = append(p.watchers, w)
	p.mu.Unlock()

	if _, err := p.Command(atoms...); err != nil {
		p.removeWatcher(w)
		return err
	}

	return <-w.done
}

func (p *Player) removeWatcher(w *watcher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, x := range p.watchers {
		if x == w {
			p.watchers = append(p.watchers[:i], p.watchers[i+1:]...)
			return
		}
	}
}

// Pause suspends playback.
func (p *Player) Pause() error {
	return p.SetProperty("pause", true)
}

// Resume continues playback.
func (p *Player) Resume() error {
	return p.SetProperty("pause", false)
}

// TogglePause inverts the current playback suspension state.
func (p *Player) TogglePause() error {
	return p.CycleProperty("pause")
}

// GetPausedStatus returns whether playback is currently paused.
func (p *Player) GetPausedStatus() (bool, error) {
	data, err := p.GetProperty("pause")
	if err != nil {
		return false, err
	}
	paused, _ := data.(bool)
	return paused, nil
}

// GetTimePos returns the current playback position in seconds.
func (p *Player) GetTimePos() (float64, error) {
	return p.getFloatProperty(protocol.PropertyTimePos)
}

// GetDuration returns the total duration of the current media in seconds.
func (p *Player) GetDuration() (float64, error) {
	return p.getFloatProperty("duration")
}

// ShowText displays a message on the player's OSD for duration milliseconds.
func (p *Player) ShowText(text string, durationMs int) error {
	_, err := p.Command("show-text", text, durationMs)
	return err
}

// getFloatProperty retrieves a numeric property value.
func (p *Player) getFloatProperty(name string) (float64, error) {
	data, err := p.GetProperty(name)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}
	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}
