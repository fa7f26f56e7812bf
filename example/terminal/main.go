package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// terminal cells per meter, cells are about twice as high as wide
	cellsX = 4.0
	cellsY = 2.0
)

// sprite is the last transform written for a body
type sprite struct {
	position mgl64.Vec2
	frame    uint64
}

type Game struct {
	screen  tcell.Screen
	physics *feather2d.World
	sprites map[*actor.RigidBody]*sprite

	width, height int
	sleeping      int
}

// WriteTransform implements feather2d.TransformWriter.
func (g *Game) WriteTransform(body *actor.RigidBody, transform actor.Transform, frame uint64) {
	s, ok := g.sprites[body]
	if !ok {
		s = &sprite{}
		g.sprites[body] = s
	}
	s.position = transform.Position
	s.frame = frame
}

func NewGame() (*Game, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	physics, err := feather2d.NewWorld(feather2d.DefaultOptions())
	if err != nil {
		screen.Fini()
		return nil, err
	}

	g := &Game{
		screen:  screen,
		physics: physics,
		sprites: make(map[*actor.RigidBody]*sprite),
	}
	physics.Writer = g
	physics.Events.Subscribe(feather2d.ON_SLEEP, func(event feather2d.Event) { g.sleeping++ })
	physics.Events.Subscribe(feather2d.ON_WAKE, func(event feather2d.Event) { g.sleeping-- })

	g.width, g.height = screen.Size()
	if err := g.buildArena(); err != nil {
		screen.Fini()
		return nil, err
	}
	return g, nil
}

func (g *Game) arenaSize() (float64, float64) {
	return float64(g.width) / cellsX, float64(g.height-1) / cellsY
}

func (g *Game) buildArena() error {
	w, h := g.arenaSize()
	walls := []struct {
		shape    actor.Shape
		position mgl64.Vec2
	}{
		{actor.NewLine(w, actor.ShapeOptions{}), mgl64.Vec2{w / 2, 0}},
		{actor.NewBox(1, h*2, actor.ShapeOptions{}), mgl64.Vec2{-0.5, h}},
		{actor.NewBox(1, h*2, actor.ShapeOptions{}), mgl64.Vec2{w + 0.5, h}},
	}
	for _, wall := range walls {
		body := actor.NewRigidBody(actor.BodyTypeStatic, 0, wall.shape)
		body.SetPosition(wall.position)
		if err := g.physics.AddBody(body); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) spawnBall() {
	w, h := g.arenaSize()
	body, err := g.physics.CreateBody(actor.BodyTypeDynamic, 1, actor.NewCircle(0.25, actor.ShapeOptions{}))
	if err != nil {
		return
	}
	body.SetPosition(mgl64.Vec2{0.5 + rand.Float64()*(w-1), h - 0.5})
	body.Velocity = mgl64.Vec2{rand.Float64()*4 - 2, 0}
	g.sprites[body] = &sprite{position: body.Position()}
}

func (g *Game) clearBalls() {
	for body := range g.sprites {
		if err := g.physics.DestroyBody(body); err != nil {
			log.Printf("destroy body %d: %v", body.ID, err)
		}
	}
	clear(g.sprites)
	g.sleeping = 0
}

func (g *Game) draw() {
	g.screen.Clear()

	ground := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for x := 0; x < g.width; x++ {
		g.screen.SetContent(x, g.height-2, '─', nil, ground)
	}

	awake := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	asleep := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for body, s := range g.sprites {
		x := int(s.position.X() * cellsX)
		y := g.height - 2 - int(s.position.Y()*cellsY)
		style := awake
		if body.IsSleeping() {
			style = asleep
		}
		g.screen.SetContent(x, y, '●', nil, style)
	}

	status := fmt.Sprintf("balls: %d  asleep: %d  steps: %.1fs  [space] spawn  [c] clear  [esc] quit",
		len(g.sprites), g.sleeping, g.physics.Time())
	for i, r := range status {
		g.screen.SetContent(i, g.height-1, r, nil, tcell.StyleDefault)
	}
	g.screen.Show()
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case ' ':
				g.spawnBall()
			case 'c':
				g.clearBalls()
			case 'q':
				return false
			}
		}
	case *tcell.EventResize:
		g.width, g.height = g.screen.Size()
		g.screen.Sync()
	}
	return true
}

func (g *Game) run() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- g.screen.PollEvent()
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			g.physics.Execute(now.Sub(last).Seconds())
			last = now
			g.draw()
		}
	}
}

func main() {
	g, err := NewGame()
	if err != nil {
		log.Fatal(err)
	}
	defer g.screen.Fini()

	for range 20 {
		g.spawnBall()
	}
	g.run()
}
