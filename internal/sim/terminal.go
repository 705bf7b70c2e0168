// Package sim runs the clock against a terminal instead of GPIO lines.
// Terminal implements hwport.Device: digits are drawn as they are
// multiplexed and keyboard keys become keypad and button presses.
package sim

import (
	"fmt"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/input"
	"github.com/sweeney/segment-clock/internal/logic"
)

const (
	frameInterval = 33 * time.Millisecond

	// A digit stays visible this long after it was last enabled.
	persistence = 100 * time.Millisecond

	keyHold    = 60 * time.Millisecond
	buttonHold = 100 * time.Millisecond
	buzzerShow = 100 * time.Millisecond
)

type latch struct {
	pattern uint8
	at      time.Time
}

type heldKey struct {
	row, col int
	until    time.Time
}

// Terminal is a simulated board. Read and Write are called from the
// clock loop; rendering and keyboard handling run on their own goroutines.
type Terminal struct {
	screen tcell.Screen
	pins   hwport.Pinout
	clock  clockwork.Clock

	mu      sync.Mutex
	levels  map[hwport.Pin]bool
	digitOf map[hwport.Pin]int
	rowOf   map[hwport.Pin]int
	lit     [logic.DigitCount]latch
	key     heldKey
	button  time.Time
	buzzed  time.Time

	done       chan struct{}
	quitOnce   sync.Once
	stop       chan struct{}
	renderDone chan struct{}
	pollDone   chan struct{}
}

// NewTerminal takes over the controlling terminal and starts drawing.
func NewTerminal(pins hwport.Pinout, clock clockwork.Clock) (*Terminal, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("pinout: %w", err)
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	screen.HideCursor()

	t := newTerminal(screen, pins, clock)
	go t.renderLoop()
	go t.pollEvents()
	return t, nil
}

func newTerminal(screen tcell.Screen, pins hwport.Pinout, clock clockwork.Clock) *Terminal {
	t := &Terminal{
		screen:     screen,
		pins:       pins,
		clock:      clock,
		levels:     make(map[hwport.Pin]bool),
		digitOf:    make(map[hwport.Pin]int),
		rowOf:      make(map[hwport.Pin]int),
		done:       make(chan struct{}),
		stop:       make(chan struct{}),
		renderDone: make(chan struct{}),
		pollDone:   make(chan struct{}),
	}
	for _, l := range pins.Outputs() {
		t.levels[l.Pin] = l.Idle
	}
	for i, p := range pins.Digits {
		t.digitOf[p] = i
	}
	for i, p := range pins.Rows {
		t.rowOf[p] = i
	}
	return t
}

// Done is closed when the user asks to quit.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// Read reports the button as pressed for a short while after space is
// typed. A keypad row reads pressed while its key is held and the key's
// column is driven low.
func (t *Terminal) Read(pin hwport.Pin) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if pin == t.pins.Button {
		if now.Before(t.button) {
			return hwport.Pressed
		}
		return hwport.Released
	}
	if r, ok := t.rowOf[pin]; ok && r == t.key.row && now.Before(t.key.until) {
		if t.levels[t.pins.Cols[t.key.col]] == hwport.Low {
			return hwport.Pressed
		}
	}
	return hwport.Released
}

// Write records the level. Enabling a digit latches the segment pattern
// currently driven; toggling the buzzer lights the buzzer indicator.
func (t *Terminal) Write(pin hwport.Pin, level bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	prev := t.levels[pin]
	t.levels[pin] = level

	if d, ok := t.digitOf[pin]; ok && level == hwport.DigitOn {
		t.lit[d] = latch{pattern: t.segmentsLocked(), at: now}
	}
	if pin == t.pins.Buzzer && level != prev {
		t.buzzed = now
	}
}

// Err always returns nil; the terminal has no I/O failures to report.
func (t *Terminal) Err() error {
	return nil
}

// Close stops drawing and restores the terminal.
func (t *Terminal) Close() error {
	t.mu.Lock()
	for _, l := range t.pins.Outputs() {
		t.levels[l.Pin] = l.Idle
	}
	t.mu.Unlock()

	close(t.stop)
	if t.screen == nil {
		return nil
	}
	<-t.renderDone
	t.screen.Fini()

	select {
	case <-t.pollDone:
	case <-time.After(100 * time.Millisecond):
	}
	return nil
}

func (t *Terminal) segmentsLocked() uint8 {
	var p uint8
	for i, pin := range t.pins.Segments {
		if t.levels[pin] == hwport.High {
			p |= 1 << uint(i)
		}
	}
	return p
}

// visible returns the pattern each digit position shows at now.
func (t *Terminal) visible(now time.Time) (patterns [logic.DigitCount]uint8, buzzing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, l := range t.lit {
		if !l.at.IsZero() && now.Sub(l.at) < persistence {
			patterns[i] = l.pattern
		}
	}
	buzzing = !t.buzzed.IsZero() && now.Sub(t.buzzed) < buzzerShow
	return patterns, buzzing
}

func (t *Terminal) quit() {
	t.quitOnce.Do(func() { close(t.done) })
}

func (t *Terminal) pressButton() {
	t.mu.Lock()
	t.button = t.clock.Now().Add(buttonHold)
	t.mu.Unlock()
}

func (t *Terminal) pressKey(k logic.Key) bool {
	row, col, ok := input.Position(k)
	if !ok {
		return false
	}
	t.mu.Lock()
	t.key = heldKey{row: row, col: col, until: t.clock.Now().Add(keyHold)}
	t.mu.Unlock()
	return true
}

func (t *Terminal) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		t.handleKey(ev)
	}
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.quit()
		return
	case tcell.KeyRune:
	default:
		return
	}

	r := ev.Rune()
	switch r {
	case 'q', 'Q':
		t.quit()
	case ' ', 'm', 'M':
		t.pressButton()
	default:
		if r < utf8.RuneSelf {
			t.pressKey(logic.Key(unicode.ToUpper(r)))
		}
	}
}

// pollEvents reads events until the screen is finalized.
func (t *Terminal) pollEvents() {
	defer close(t.pollDone)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		t.handleEvent(ev)
	}
}

func (t *Terminal) renderLoop() {
	defer close(t.renderDone)
	ticker := t.clock.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.Chan():
			t.render()
		}
	}
}
