package tui

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
)

const (
	cellWidth  = 2
	headerRows = 1
)

type mark int

const (
	markNone mark = iota
	markOpen
	markClosed
	markPath
)

var (
	styleBlank    = tcell.StyleDefault
	styleObstacle = tcell.StyleDefault.Background(tcell.ColorWhite)
	styleStart    = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleEnd      = tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorBlack)
	styleOpen     = tcell.StyleDefault.Background(tcell.ColorTeal)
	styleClosed   = tcell.StyleDefault.Background(tcell.ColorNavy)
	stylePath     = tcell.StyleDefault.Background(tcell.ColorYellow)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// Viewer edits and animates one session in a terminal
type Viewer struct {
	screen    tcell.Screen
	service   service.GridService
	sessionID string
	tone      *Tone

	snapshot *grid.Snapshot
	editor   Editor
	pressed  bool

	run       *search.Run
	delay     time.Duration
	ticker    *time.Ticker
	tickDelay time.Duration
	marks     map[grid.Position]mark
	path      []grid.Position
	revealed  int
	status    string
}

// NewViewer creates a viewer for an existing session. The screen must
// already be initialized.
func NewViewer(screen tcell.Screen, svc service.GridService, sessionID string, tone *Tone) (*Viewer, error) {
	snapshot, err := svc.GetGrid(context.Background(), sessionID)
	if err != nil {
		return nil, err
	}

	return &Viewer{
		screen:    screen,
		service:   svc,
		sessionID: sessionID,
		tone:      tone,
		snapshot:  snapshot,
		marks:     make(map[grid.Position]mark),
		status:    "r run | c cancel | x clear | o obstacles | q quit",
	}, nil
}

// Run processes input and animates searches until the user quits or ctx
// is done
func (v *Viewer) Run(ctx context.Context) error {
	v.screen.EnableMouse()
	defer v.screen.DisableMouse()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	defer v.stopTicker()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-eventChan:
			if !v.HandleEvent(ev) {
				return nil
			}

		case <-v.tick():
			v.Step()
		}
		v.Draw()
	}
}

// tick returns the animation clock while a run or path reveal is in
// progress, and nil otherwise
func (v *Viewer) tick() <-chan time.Time {
	if !v.Animating() {
		v.stopTicker()
		return nil
	}
	if v.ticker == nil {
		v.ticker = time.NewTicker(v.delay)
		v.tickDelay = v.delay
	}
	return v.ticker.C
}

func (v *Viewer) stopTicker() {
	if v.ticker != nil {
		v.ticker.Stop()
		v.ticker = nil
	}
}

// Animating reports whether a run or path reveal still has steps to show
func (v *Viewer) Animating() bool {
	return v.run != nil || v.revealed < len(v.path)
}

// HandleEvent applies one terminal event. It returns false when the user
// asks to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventMouse:
		x, y := ev.Position()
		v.handleMouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) handleKey(key tcell.Key, ch rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		v.startSearch()
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch ch {
	case 'q':
		return false
	case 'r':
		v.startSearch()
	case 'c':
		v.cancelSearch()
	case 'x':
		v.applyEdit(v.service.ClearGrid(context.Background(), v.sessionID))
	case 'o':
		v.applyEdit(v.service.AddRandomObstacles(context.Background(), v.sessionID, service.RandomObstaclesRequest{}))
	}
	return true
}

func (v *Viewer) handleMouse(x, y int, buttons tcell.ButtonMask) {
	if buttons&tcell.Button1 == 0 {
		if v.pressed {
			v.pressed = false
			v.editor.Release()
		}
		return
	}

	p, ok := v.cellAt(x, y)
	if !ok {
		return
	}

	var action string
	if !v.pressed {
		v.pressed = true
		action = v.editor.Press(v.cellType(p))
	} else {
		action = v.editor.Drag(v.cellType(p))
	}
	if action == "" {
		return
	}

	v.applyEdit(v.service.EditCell(context.Background(), v.sessionID, service.EditRequest{
		Action: action,
		Row:    p.Row,
		Col:    p.Col,
	}))
}

// applyEdit takes the grid from an edit result. Edits cancel any run, so
// the search overlay is dropped as well.
func (v *Viewer) applyEdit(result *service.EditResult, err error) {
	if err != nil {
		v.status = err.Error()
		return
	}
	v.snapshot = result.Grid
	v.resetSearch()
	if result.RunCancelled {
		v.status = "search cancelled by edit"
	}
}

func (v *Viewer) startSearch() {
	handle, err := v.service.StartSearch(context.Background(), v.sessionID)
	if err != nil {
		v.status = err.Error()
		return
	}

	v.resetSearch()
	v.snapshot = handle.Grid
	v.run = handle.Run
	v.delay = handle.StepDelay
	if v.delay <= 0 {
		v.delay = time.Millisecond
	}
	// A restart mid-animation keeps the ticker running at the old pace
	if v.ticker != nil {
		v.ticker.Reset(v.delay)
		v.tickDelay = v.delay
	}
	v.status = "searching..."
}

func (v *Viewer) cancelSearch() {
	cancelled, err := v.service.CancelSearch(context.Background(), v.sessionID)
	if err != nil {
		v.status = err.Error()
		return
	}
	if cancelled {
		v.status = "search cancelled"
	}
	v.run = nil
	v.path = nil
	v.revealed = 0
}

func (v *Viewer) resetSearch() {
	v.run = nil
	v.path = nil
	v.revealed = 0
	v.marks = make(map[grid.Position]mark)
}

// Step shows the next search event, or the next path cell once the search
// has found one
func (v *Viewer) Step() {
	if v.run == nil {
		if v.revealed < len(v.path) {
			v.marks[v.path[v.revealed]] = markPath
			v.revealed++
			if v.revealed == len(v.path) {
				v.status = fmt.Sprintf("path found: %d cells, cost %g", len(v.path), search.PathCost(v.path))
				v.tone.Play(search.OutcomeFound)
			}
		}
		return
	}

	ev, ok := v.run.Next()
	if !ok {
		// Cancelled from elsewhere, e.g. through the API
		v.status = "search cancelled"
		v.run = nil
		return
	}

	switch ev.Kind {
	case search.EventOpened, search.EventImproved:
		v.marks[ev.Cell] = markOpen
	case search.EventClosed:
		v.marks[ev.Cell] = markClosed
	case search.EventPath:
		log.Printf("[SEARCH] session=%s run=%s outcome=found expanded=%d path=%d",
			v.sessionID, v.run.ID(), v.run.Stats().Expanded, len(ev.Path))
		v.run = nil
		v.path = ev.Path
		v.revealed = 0
		v.status = "revealing path..."
	case search.EventNoPath:
		log.Printf("[SEARCH] session=%s run=%s outcome=no_path expanded=%d",
			v.sessionID, v.run.ID(), v.run.Stats().Expanded)
		v.run = nil
		v.status = "no path"
		v.tone.Play(search.OutcomeNoPath)
	}
}

// Draw renders the grid, search overlay and status line
func (v *Viewer) Draw() {
	v.screen.Clear()

	title := fmt.Sprintf("session %s | %dx%d | %s", v.sessionID, v.snapshot.Rows, v.snapshot.Cols, v.editor.Mode())
	v.drawText(0, 0, title, styleStatus)

	for r, line := range v.snapshot.Layout {
		for c := 0; c < len(line); c++ {
			p := grid.Position{Row: r, Col: c}
			ch, style := v.cellGlyph(p, line[c])
			x, y := c*cellWidth, r+headerRows
			v.screen.SetContent(x, y, ch, nil, style)
			v.screen.SetContent(x+1, y, ' ', nil, style)
		}
	}

	v.drawText(0, v.snapshot.Rows+headerRows+1, v.status, styleStatus)
	v.screen.Show()
}

func (v *Viewer) cellGlyph(p grid.Position, layoutChar byte) (rune, tcell.Style) {
	switch layoutChar {
	case grid.StartChar:
		return 'S', styleStart
	case grid.EndChar:
		return 'E', styleEnd
	case grid.ObstacleChar:
		return ' ', styleObstacle
	}

	switch v.marks[p] {
	case markOpen:
		return ' ', styleOpen
	case markClosed:
		return ' ', styleClosed
	case markPath:
		return '*', stylePath
	}
	return '.', styleBlank
}

func (v *Viewer) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

// cellAt maps screen coordinates to a grid cell
func (v *Viewer) cellAt(x, y int) (grid.Position, bool) {
	if x < 0 || y < headerRows {
		return grid.Position{}, false
	}
	p := grid.Position{Row: y - headerRows, Col: x / cellWidth}
	if p.Row >= v.snapshot.Rows || p.Col >= v.snapshot.Cols {
		return grid.Position{}, false
	}
	return p, true
}

func (v *Viewer) cellType(p grid.Position) grid.CellType {
	t, _ := grid.CellTypeFromChar(v.snapshot.Layout[p.Row][p.Col])
	return t
}
