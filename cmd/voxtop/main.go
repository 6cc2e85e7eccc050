// Command voxtop streams tiles around a moving point and shows the state of
// every tile in the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/scheduler"
	"voxstream/internal/world"

	"github.com/gdamore/tcell/v2"
)

var stateStyle = map[scheduler.TileState]tcell.Style{
	scheduler.TileUnscheduled: tcell.StyleDefault.Foreground(tcell.ColorGray),
	scheduler.TilePending:     tcell.StyleDefault.Foreground(tcell.ColorYellow),
	scheduler.TileExtracting:  tcell.StyleDefault.Foreground(tcell.ColorOrange),
	scheduler.TileReady:       tcell.StyleDefault.Foreground(tcell.ColorAqua),
	scheduler.TileConsumed:    tcell.StyleDefault.Foreground(tcell.ColorGreen),
}

var stateRune = map[scheduler.TileState]rune{
	scheduler.TileUnscheduled: '·',
	scheduler.TilePending:     'p',
	scheduler.TileExtracting:  'E',
	scheduler.TileReady:       'r',
	scheduler.TileConsumed:    '█',
}

type viewer struct {
	screen tcell.Screen
	s      *scheduler.Scheduler
	radius int
	center world.ChunkCoord
	// popsPerFrame throttles consumption so queued results stay visible.
	popsPerFrame int
	popped       int
}

func main() {
	var (
		configPath = flag.String("config", "voxstream.toml", "config file (.toml or .yaml)")
		radius     = flag.Int("radius", 10, "tiles streamed around the moving point")
		speed      = flag.Duration("step", 750*time.Millisecond, "time between moves of one tile")
		pops       = flag.Int("pops", 4, "results consumed per frame")
	)
	flag.Parse()

	uc, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	// The screen owns the terminal; logs are dropped.
	conf, err := uc.Config(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fail(err)
	}
	conf.EvictRadius = *radius + 2
	s := conf.New()
	defer s.Destroy()

	screen, err := tcell.NewScreen()
	if err != nil {
		fail(err)
	}
	if err := screen.Init(); err != nil {
		fail(err)
	}
	defer screen.Fini()

	v := &viewer{screen: screen, s: s, radius: *radius, popsPerFrame: *pops}
	v.loop(*speed)
}

func (v *viewer) loop(step time.Duration) {
	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	go v.screen.ChannelEvents(events, quit)
	defer close(quit)

	frame := time.NewTicker(33 * time.Millisecond)
	defer frame.Stop()
	move := time.NewTicker(step)
	defer move.Stop()
	last := time.Now()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		case <-move.C:
			v.advance()
		case now := <-frame.C:
			v.schedule()
			v.consume()
			v.s.OnFrame(now.Sub(last))
			last = now
			v.draw()
		}
	}
}

func (v *viewer) schedule() {
	size := v.s.ChunkSize()
	for x := v.center.X - v.radius; x <= v.center.X+v.radius; x++ {
		for z := v.center.Z - v.radius; z <= v.center.Z+v.radius; z++ {
			v.s.ScheduleMeshExtraction(world.Pos{X: x * size, Y: 2 * size, Z: z * size})
		}
	}
}

// advance moves one tile east and releases the column left behind, so the
// dedup set only holds tiles around the centre.
func (v *viewer) advance() {
	size := v.s.ChunkSize()
	x := v.center.X - v.radius
	for z := v.center.Z - v.radius; z <= v.center.Z+v.radius; z++ {
		v.s.AllowReExtraction(world.Pos{X: x * size, Y: 2 * size, Z: z * size})
	}
	v.center.X++
}

func (v *viewer) consume() {
	for range v.popsPerFrame {
		if _, ok := v.s.Pop(); !ok {
			return
		}
		v.popped++
	}
}

func (v *viewer) draw() {
	v.screen.Clear()
	states := make(map[world.ChunkCoord]scheduler.TileState)
	for _, ts := range v.s.Tiles() {
		states[ts.Tile] = ts.State
	}
	w, h := v.screen.Size()
	for row := 0; row < h-2; row++ {
		z := v.center.Z - (h-2)/2 + row
		for col := 0; col < w; col++ {
			x := v.center.X - w/2 + col
			st := states[world.ChunkCoord{X: x, Y: 2, Z: z}]
			v.screen.SetContent(col, row, stateRune[st], nil, stateStyle[st])
		}
	}
	st := v.s.Stats()
	line := fmt.Sprintf("center %v  pending %d  extracting %d  ready %d  consumed %d  queued %d  chunks %d  popped %d  (q quits)",
		v.center, st.Pending, st.Extracting, st.Ready, st.Consumed, st.Queued, st.Chunks, v.popped)
	for i, r := range []rune(line) {
		if i >= w {
			break
		}
		v.screen.SetContent(i, h-1, r, nil, tcell.StyleDefault.Bold(true))
	}
	v.screen.Show()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "voxtop:", err)
	os.Exit(1)
}
