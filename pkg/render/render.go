// Package render draws a road network and a route on it as SVG.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"drive_router/pkg/graph"
)

// Style controls colors and sizes of the plot.
type Style struct {
	Width       int // canvas width in px; height follows the map's aspect ratio
	Padding     int
	Background  string
	EdgeColor   string
	EdgeWidth   float64
	RouteColor  string
	RouteWidth  float64
	MarkerSize  int
	MarkerWidth float64
	FontSize    int
}

// DefaultStyle returns the green map style.
func DefaultStyle() Style {
	return Style{
		Width:       1600,
		Padding:     40,
		Background:  "#D9E8D3",
		EdgeColor:   "#A5C79B",
		EdgeWidth:   0.8,
		RouteColor:  "#1A5D41",
		RouteWidth:  3,
		MarkerSize:  10,
		MarkerWidth: 2,
		FontSize:    18,
	}
}

// projection maps lon/lat to canvas pixels with an equirectangular
// projection around the graph's mid latitude.
type projection struct {
	minLon, maxLat float64
	cosLat         float64
	scale          float64
	pad            int
}

func newProjection(g *graph.Graph, width, pad int) (projection, int) {
	b := g.Bound()
	midLat := (b.Min.Lat() + b.Max.Lat()) / 2
	p := projection{
		minLon: b.Min.Lon(),
		maxLat: b.Max.Lat(),
		cosLat: math.Cos(midLat * math.Pi / 180),
		pad:    pad,
	}

	xSpan := (b.Max.Lon() - b.Min.Lon()) * p.cosLat
	ySpan := b.Max.Lat() - b.Min.Lat()
	if xSpan <= 0 {
		xSpan = 1e-6
	}
	p.scale = float64(width-2*pad) / xSpan
	height := int(math.Ceil(ySpan*p.scale)) + 2*pad
	return p, height
}

func (p projection) xy(lat, lon float64) (int, int) {
	x := (lon - p.minLon) * p.cosLat * p.scale
	y := (p.maxLat - lat) * p.scale
	return p.pad + int(math.Round(x)), p.pad + int(math.Round(y))
}

// Route writes an SVG of every edge of g with the route nodes drawn on top,
// a circle at start, an X at end and a legend. start and end are the nodes
// the route was searched between.
func Route(w io.Writer, g *graph.Graph, nodes []uint32, start, end uint32, st Style) error {
	if g.NumNodes == 0 {
		return errors.New("render: empty graph")
	}
	if len(nodes) < 2 {
		return errors.New("render: route needs at least two nodes")
	}
	if start >= g.NumNodes || end >= g.NumNodes {
		return errors.New("render: marker node out of range")
	}

	ew := &errWriter{w: w}
	proj, height := newProjection(g, st.Width, st.Padding)
	canvas := svg.New(ew)
	canvas.Start(st.Width, height)
	canvas.Rect(0, 0, st.Width, height, "fill:"+st.Background)

	drawEdges(canvas, g, proj, st)
	drawRoute(canvas, g, nodes, proj, st)
	drawMarkers(canvas, g, start, end, proj, st)
	drawLegend(canvas, st, height)

	canvas.End()
	return ew.err
}

func drawEdges(canvas *svg.SVG, g *graph.Graph, proj projection, st Style) {
	// Two-way streets are stored as two edges; draw each pair once.
	seen := make(map[uint64]struct{}, g.NumEdges/2)
	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:%g;stroke-linecap:round;fill:none", st.EdgeColor, st.EdgeWidth))
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			a, b := min(u, v), max(u, v)
			key := uint64(a)<<32 | uint64(b)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			x1, y1 := proj.xy(g.NodeLat[u], g.NodeLon[u])
			x2, y2 := proj.xy(g.NodeLat[v], g.NodeLon[v])
			canvas.Line(x1, y1, x2, y2)
		}
	}
	canvas.Gend()
}

func drawRoute(canvas *svg.SVG, g *graph.Graph, nodes []uint32, proj projection, st Style) {
	xs := make([]int, len(nodes))
	ys := make([]int, len(nodes))
	for i, n := range nodes {
		xs[i], ys[i] = proj.xy(g.NodeLat[n], g.NodeLon[n])
	}
	canvas.Polyline(xs, ys, fmt.Sprintf(
		"fill:none;stroke:%s;stroke-width:%g;stroke-linejoin:round;stroke-linecap:round",
		st.RouteColor, st.RouteWidth))
}

func drawMarkers(canvas *svg.SVG, g *graph.Graph, start, end uint32, proj projection, st Style) {
	sx, sy := proj.xy(g.NodeLat[start], g.NodeLon[start])
	startMarker(canvas, sx, sy, st)
	ex, ey := proj.xy(g.NodeLat[end], g.NodeLon[end])
	endMarker(canvas, ex, ey, st)
}

func startMarker(canvas *svg.SVG, x, y int, st Style) {
	canvas.Circle(x, y, st.MarkerSize, fmt.Sprintf("fill:white;stroke:%s;stroke-width:%g", st.RouteColor, st.MarkerWidth))
}

// endMarker draws an X on a white backing so it stays legible over the route.
func endMarker(canvas *svg.SVG, x, y int, st Style) {
	r := st.MarkerSize
	canvas.Circle(x, y, r, "fill:white;stroke:none")
	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:%g;stroke-linecap:round", st.RouteColor, st.MarkerWidth*1.5))
	canvas.Line(x-r, y-r, x+r, y+r)
	canvas.Line(x-r, y+r, x+r, y-r)
	canvas.Gend()
}

func drawLegend(canvas *svg.SVG, st Style, height int) {
	const rows = 2
	rowH := st.FontSize + st.MarkerSize + 6
	boxW := 10*st.FontSize + 2*st.MarkerSize
	boxH := rows*rowH + 16
	x := st.Width - boxW - st.Padding/2
	y := height - boxH - st.Padding/2

	canvas.Rect(x, y, boxW, boxH, fmt.Sprintf("fill:white;fill-opacity:0.85;stroke:%s;stroke-width:1", st.EdgeColor))

	textStyle := fmt.Sprintf("font-family:sans-serif;font-size:%dpx;fill:%s", st.FontSize, st.RouteColor)
	mx := x + 8 + st.MarkerSize
	tx := mx + st.MarkerSize + 12

	y1 := y + 8 + rowH/2
	startMarker(canvas, mx, y1, st)
	canvas.Text(tx, y1+st.FontSize/3, "Start", textStyle)

	y2 := y1 + rowH
	endMarker(canvas, mx, y2, st)
	canvas.Text(tx, y2+st.FontSize/3, "Destination", textStyle)
}

// errWriter keeps the first write error; svgo itself ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
