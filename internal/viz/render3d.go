package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Rotate returns R*v for a 3x3 matrix R.
func (v Vec3) Rotate(R mat.Matrix) Vec3 {
	var out mat.VecDense
	out.MulVec(R, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Camera orbits a target point. Yaw turns about the world z axis, pitch
// tilts the view towards the ground plane.
type Camera struct {
	Target     Vec3
	Distance   float64
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 10, Yaw: math.Pi / 6, Pitch: math.Pi / 6, Zoom: 1.0}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(50, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

// view moves p into camera coordinates: x right, y up, z towards the viewer.
func (c *Camera) view(p Vec3) Vec3 {
	p = p.Sub(c.Target)
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p.X, p.Y = p.X*cy+p.Y*sy, -p.X*sy+p.Y*cy
	// Ground plane (x, y) to screen: y goes into the screen, z up.
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	return Vec3{X: p.X, Y: p.Z*cp + p.Y*sp, Z: p.Z*sp - p.Y*cp}
}

// Project converts a world point (z up) to dots on a sw x sh canvas.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	v := c.view(p)
	if v.Z >= c.Distance-0.01 {
		return 0, 0, 0, false
	}
	scale := c.Zoom * c.Distance / (c.Distance - v.Z)
	pScale := float64(min(sw, sh)) / 3.0
	sx := int(math.Round(v.X*scale*pScale)) + sw/2
	sy := int(math.Round(-v.Y*scale*pScale)) + sh/2
	return sx, sy, v.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe          { return &Wireframe{} }
func (w *Wireframe) AddEdge(s, e Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }

// Append adds every edge of o.
func (w *Wireframe) Append(o *Wireframe) { w.Edges = append(w.Edges, o.Edges...) }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe far to near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// QuadrotorWireframe draws a plus-frame vehicle with arm length arm at pos.
// R maps body vectors (z down) into the display frame (z up).
func QuadrotorWireframe(pos Vec3, R mat.Matrix, arm float64) *Wireframe {
	w := NewWireframe()
	rotor := arm / 3
	motors := []Vec3{{arm, 0, 0}, {0, arm, 0}, {-arm, 0, 0}, {0, -arm, 0}}
	for _, m := range motors {
		tip := pos.Add(m.Rotate(R))
		w.AddEdge(pos, tip)
		a := pos.Add(m.Add(Vec3{rotor, 0, 0}).Rotate(R))
		b := pos.Add(m.Sub(Vec3{rotor, 0, 0}).Rotate(R))
		cc := pos.Add(m.Add(Vec3{0, rotor, 0}).Rotate(R))
		d := pos.Add(m.Sub(Vec3{0, rotor, 0}).Rotate(R))
		w.AddEdge(a, b)
		w.AddEdge(cc, d)
	}
	// Thrust axis.
	w.AddEdge(pos, pos.Add(Vec3{0, 0, -arm / 2}.Rotate(R)))
	return w
}

// GroundGrid is a square grid in the z = 0 plane centred on (cx, cy).
func GroundGrid(cx, cy, half, step float64) *Wireframe {
	w := NewWireframe()
	if step <= 0 {
		return w
	}
	for s := -half; s <= half+1e-9; s += step {
		w.AddEdge(Vec3{cx + s, cy - half, 0}, Vec3{cx + s, cy + half, 0})
		w.AddEdge(Vec3{cx - half, cy + s, 0}, Vec3{cx + half, cy + s, 0})
	}
	return w
}

func CreateAxesWireframe(l float64) *Wireframe {
	w, o := NewWireframe(), Vec3{}
	w.AddEdge(o, Vec3{l, 0, 0})
	w.AddEdge(o, Vec3{0, l, 0})
	w.AddEdge(o, Vec3{0, 0, l})
	return w
}
