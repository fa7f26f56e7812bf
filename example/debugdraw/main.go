package main

import (
	"fmt"
	"image/color"
	"log"
	"math/rand"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/ecs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

const (
	screenW = 960
	screenH = 640
	// pixels per meter
	scale = 32.0
)

var (
	colorAwake  = color.RGBA{0x4c, 0xc9, 0xf0, 0xff}
	colorAsleep = color.RGBA{0x70, 0x70, 0x80, 0xff}
	colorStatic = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	colorSensor = color.RGBA{0xf7, 0xb8, 0x01, 0xff}
)

type Game struct {
	world   donburi.World
	physics *feather2d.World
	store   *ecs.Store

	vertices []mgl64.Vec2
	normals  []mgl64.Vec2

	triggers int
	hits     int
}

func toScreen(p mgl64.Vec2) (float32, float32) {
	return float32(screenW/2 + p.X()*scale), float32(screenH - 40 - p.Y()*scale)
}

func toWorld(x, y int) mgl64.Vec2 {
	return mgl64.Vec2{(float64(x) - screenW/2) / scale, (screenH - 40 - float64(y)) / scale}
}

func (g *Game) spawn(body *actor.RigidBody, position mgl64.Vec2) {
	body.SetPosition(position)
	if _, err := g.store.Spawn(body); err != nil {
		log.Fatal(err)
	}
}

func (g *Game) spawnRandom(position mgl64.Vec2) {
	var shape actor.Shape
	switch rand.Intn(3) {
	case 0:
		shape = actor.NewCircle(0.3+rand.Float64()*0.4, actor.ShapeOptions{})
	case 1:
		shape = actor.NewBox(0.5+rand.Float64(), 0.5+rand.Float64(), actor.ShapeOptions{})
	default:
		triangle, err := actor.NewConvex([]mgl64.Vec2{{-0.6, -0.4}, {0.6, -0.4}, {0, 0.7}}, true, actor.ShapeOptions{})
		if err != nil {
			log.Fatal(err)
		}
		shape = triangle
	}
	body := actor.NewRigidBody(actor.BodyTypeDynamic, 1, shape)
	body.CCDSpeedThreshold = 10
	g.spawn(body, position)
}

func (g *Game) setup() {
	ground := actor.NewRigidBody(actor.BodyTypeStatic, 0, actor.NewLine(28, actor.ShapeOptions{}))
	g.spawn(ground, mgl64.Vec2{})

	for _, x := range []float64{-14, 14} {
		wall := actor.NewRigidBody(actor.BodyTypeStatic, 0, actor.NewBox(0.5, 18, actor.ShapeOptions{}))
		g.spawn(wall, mgl64.Vec2{x, 9})
	}

	ramp := actor.NewRigidBody(actor.BodyTypeStatic, 0, actor.NewBox(8, 0.3, actor.ShapeOptions{}))
	ramp.SetAngle(-0.35)
	g.spawn(ramp, mgl64.Vec2{-7, 6})

	zone := actor.NewRigidBody(actor.BodyTypeStatic, 0, actor.NewBox(6, 3, actor.ShapeOptions{Sensor: true}))
	g.spawn(zone, mgl64.Vec2{7, 1.5})

	// A pendulum hanging from a static anchor
	anchor := actor.NewRigidBody(actor.BodyTypeStatic, 0)
	g.spawn(anchor, mgl64.Vec2{3, 14})
	bob := actor.NewRigidBody(actor.BodyTypeDynamic, 2, actor.NewCircle(0.6, actor.ShapeOptions{}))
	g.spawn(bob, mgl64.Vec2{7, 14})
	rope := constraint.NewDistanceConstraint(anchor, bob, mgl64.Vec2{}, mgl64.Vec2{}, constraint.Unbounded, false)
	if err := g.physics.AddConstraint(rope); err != nil {
		log.Fatal(err)
	}

	// A box pushed along the ground by a force that ramps up then repeats
	pushed := actor.NewRigidBody(actor.BodyTypeDynamic, 3, actor.NewBox(1.2, 1.2, actor.ShapeOptions{}))
	pushed.AllowSleep = false
	g.spawn(pushed, mgl64.Vec2{-10, 0.6})
	push := feather2d.NewTweenForce(pushed, mgl64.Vec2{1, 0}, 0, 40, 2, ease.InOutSine)
	push.Loop = true
	g.physics.AddForceGenerator(push)

	for i := range 12 {
		g.spawnRandom(mgl64.Vec2{float64(i%6)*1.5 - 4, 10 + float64(i/6)*1.5})
	}

	ecs.PhysicsEventType.Subscribe(g.world, func(w donburi.World, event feather2d.Event) {
		switch event.Type() {
		case feather2d.TRIGGER_ENTER:
			g.triggers++
		case feather2d.COLLISION_ENTER:
			g.hits++
		}
	})
}

func (g *Game) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.spawnRandom(toWorld(ebiten.CursorPosition()))
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		from := toWorld(ebiten.CursorPosition())
		if hit, ok := g.physics.Raycast(from, from.Add(mgl64.Vec2{0, -30}), feather2d.RaycastOptions{SkipNonColliders: true}); ok {
			hit.Body.ApplyImpulse(mgl64.Vec2{0, 12 * hit.Body.Mass}, mgl64.Vec2{})
		}
	}

	g.store.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x16, 0x16, 0x1e, 0xff})

	ecs.Body.Each(g.world, func(entry *donburi.Entry) {
		body := ecs.Body.Get(entry).Body
		transform := ecs.Transform.Get(entry)
		for _, shape := range body.Shapes {
			g.drawShape(screen, body, shape, transform)
		}
	})

	ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.0f  bodies: %d  hits: %d  triggers: %d\nleft click: spawn  right click: kick",
		ebiten.ActualTPS(), g.store.Len(), g.hits, g.triggers))
}

func (g *Game) drawShape(screen *ebiten.Image, body *actor.RigidBody, shape actor.Shape, transform *ecs.TransformData) {
	base := shape.Base()
	position := actor.ToWorldFrame(base.Position, transform.Position, transform.Rotation)
	angle := transform.Rotation + base.Angle

	clr := colorAwake
	switch {
	case base.Sensor:
		clr = colorSensor
	case body.BodyType == actor.BodyTypeStatic:
		clr = colorStatic
	case body.IsSleeping():
		clr = colorAsleep
	}

	switch s := shape.(type) {
	case *actor.Circle:
		cx, cy := toScreen(position)
		vector.StrokeCircle(screen, cx, cy, float32(s.Radius*scale), 1.5, clr, true)
		// radius marker to show the rotation
		x, y := toScreen(position.Add(actor.Rotate(mgl64.Vec2{s.Radius, 0}, angle)))
		vector.StrokeLine(screen, cx, cy, x, y, 1, clr, true)
	case *actor.Line:
		a, b := s.Endpoints(position, angle)
		x0, y0 := toScreen(a)
		x1, y1 := toScreen(b)
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, clr, true)
	case *actor.Box:
		g.vertices, g.normals = s.WorldVertices(position, angle, g.vertices, g.normals)
		g.strokePolygon(screen, clr)
	case *actor.Convex:
		g.vertices, g.normals = s.WorldVertices(position, angle, g.vertices, g.normals)
		g.strokePolygon(screen, clr)
	default:
		x, y := toScreen(position)
		vector.DrawFilledRect(screen, x-1, y-1, 3, 3, clr, false)
	}
}

func (g *Game) strokePolygon(screen *ebiten.Image, clr color.Color) {
	for i, v := range g.vertices {
		next := g.vertices[(i+1)%len(g.vertices)]
		x0, y0 := toScreen(v)
		x1, y1 := toScreen(next)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1.5, clr, true)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	options := feather2d.DefaultOptions()
	options.UseIslands = true
	options.Workers = 4
	physics, err := feather2d.NewWorld(options)
	if err != nil {
		log.Fatal(err)
	}

	world := donburi.NewWorld()
	g := &Game{
		world:   world,
		physics: physics,
		store:   ecs.NewStore(world, physics),
	}
	g.setup()

	ebiten.SetWindowTitle("feather2d debug draw")
	ebiten.SetWindowSize(screenW, screenH)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
