package framegraph

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	vk "github.com/goki/vulkan"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PassInfo is a read-only snapshot of one pass for tooling.
type PassInfo struct {
	Name        string
	Layer       int
	Barriers    int
	Attachments int
	Reads       []string
	Writes      []string
}

// ResourceInfo is a read-only snapshot of one resource for tooling.
// Layout is the state the last Compile left the resource in; for
// buffers it stays undefined.
type ResourceInfo struct {
	Name     string
	Kind     string
	Imported bool
	Lifetime Lifetime
	Resolved bool

	Width  uint32
	Height uint32
	Format vk.Format
	Size   vk.DeviceSize
	Layout vk.ImageLayout
}

// Passes snapshots the current frame's passes. Layer and barrier
// counts are meaningful only after Compile.
func (g *Graph) Passes() []PassInfo {
	infos := make([]PassInfo, len(g.passes))
	for pi := range g.passes {
		p := &g.passes[pi]
		info := PassInfo{
			Name:        p.name,
			Layer:       p.layer,
			Barriers:    len(p.barriers),
			Attachments: len(p.attachments),
		}
		for _, att := range p.attachments {
			info.Writes = append(info.Writes, g.resources[att.Resource].name)
		}
		for _, acc := range p.accesses {
			name := g.resources[acc.Resource].name
			if isWriteAccess(acc.Access) {
				info.Writes = append(info.Writes, name)
			} else {
				info.Reads = append(info.Reads, name)
			}
		}
		infos[pi] = info
	}
	return infos
}

// Resources snapshots the current frame's resources.
func (g *Graph) Resources() []ResourceInfo {
	infos := make([]ResourceInfo, len(g.resources))
	for ri := range g.resources {
		rec := &g.resources[ri]
		info := ResourceInfo{
			Name:     rec.name,
			Kind:     rec.kind.String(),
			Imported: rec.isImported(),
			Lifetime: rec.lifetime,
			Resolved: rec.image != nil || rec.buf != nil,
		}
		if rec.isImage() {
			info.Width = rec.texture.Width
			info.Height = rec.texture.Height
			info.Format = rec.texture.Format
			info.Layout = rec.state.Layout
		} else {
			info.Size = rec.buffer.Size
		}
		infos[ri] = info
	}
	return infos
}

// DOT writes the frame as a Graphviz digraph: passes as boxes grouped
// by layer, resources as ellipses, access edges between them. Feed the
// output to dot to visualize what Compile made of the frame.
func (g *Graph) DOT(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("digraph framegraph {\n")
	p("\trankdir=LR;\n")
	p("\tnode [fontsize=10];\n")

	for pi := range g.passes {
		pass := &g.passes[pi]
		p("\tp%d [shape=box, label=%q];\n", pi, fmt.Sprintf("%s\nlayer %d", pass.name, pass.layer))
	}
	for ri := range g.resources {
		rec := &g.resources[ri]
		shape := "ellipse"
		if rec.isImported() {
			shape = "doubleoctagon"
		}
		p("\tr%d [shape=%s, label=%q];\n", ri, shape, rec.name)
	}

	for pi := range g.passes {
		pass := &g.passes[pi]
		for _, att := range pass.attachments {
			p("\tp%d -> r%d [color=red];\n", pi, int(att.Resource))
		}
		for _, acc := range pass.accesses {
			if isWriteAccess(acc.Access) {
				p("\tp%d -> r%d [color=red];\n", pi, int(acc.Resource))
			} else {
				p("\tr%d -> p%d [color=blue];\n", int(acc.Resource), pi)
			}
		}
	}

	// Same-rank clusters per layer so dot draws the schedule's shape.
	for li, layer := range g.layers {
		p("\t{ rank=same;")
		for _, pi := range layer {
			p(" p%d;", pi)
		}
		p(" } // layer %d\n", li)
	}

	p("}\n")
	return err
}

// Chart geometry, in pixels.
const (
	chartRowHeight  = 16
	chartColWidth   = 24
	chartLabelWidth = 160
	chartHeader     = 20
	chartPad        = 4
)

// LifetimeChart renders the resource lifetimes as a Gantt-style image:
// one row per resource, one column per pass, a filled bar over the
// passes the resource is alive in. Transients that alias the same
// physical object show it at a glance as stacked non-overlapping bars.
func (g *Graph) LifetimeChart() image.Image {
	rows := len(g.resources)
	cols := len(g.passes)
	width := chartLabelWidth + cols*chartColWidth + chartPad
	height := chartHeader + rows*chartRowHeight + chartPad
	if cols == 0 {
		width = chartLabelWidth + chartPad
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	label := func(x, y int, s string, c color.Color) {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(s)
	}

	grid := color.RGBA{R: 0xD0, G: 0xD0, B: 0xD0, A: 0xFF}
	transientBar := color.RGBA{R: 0x4C, G: 0x8F, B: 0xD6, A: 0xFF}
	importedBar := color.RGBA{R: 0x7A, G: 0xB8, B: 0x6E, A: 0xFF}

	for ci := 0; ci < cols; ci++ {
		x := chartLabelWidth + ci*chartColWidth
		for y := chartHeader; y < height-chartPad; y++ {
			img.Set(x, y, grid)
		}
		label(x+chartPad, chartHeader-6, fmt.Sprintf("%d", ci), color.Black)
	}

	for ri := range g.resources {
		rec := &g.resources[ri]
		top := chartHeader + ri*chartRowHeight
		label(chartPad, top+chartRowHeight-4, clipLabel(rec.name, 21), color.Black)

		bar := transientBar
		if rec.isImported() {
			bar = importedBar
		}
		x0 := chartLabelWidth + rec.lifetime.First*chartColWidth
		x1 := chartLabelWidth + (rec.lifetime.Last+1)*chartColWidth
		rect := image.Rect(x0+1, top+2, x1-1, top+chartRowHeight-2)
		draw.Draw(img, rect, image.NewUniform(bar), image.Point{}, draw.Src)
	}

	return img
}

// clipLabel trims s to at most n characters for the fixed label gutter.
func clipLabel(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}

// layoutName is the short human name of a layout for logs and dumps.
func layoutName(l vk.ImageLayout) string {
	switch l {
	case vk.ImageLayoutUndefined:
		return "undefined"
	case vk.ImageLayoutGeneral:
		return "general"
	case vk.ImageLayoutColorAttachmentOptimal:
		return "color-attachment"
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return "depth-stencil-attachment"
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return "shader-read-only"
	case vk.ImageLayoutTransferSrcOptimal:
		return "transfer-src"
	case vk.ImageLayoutTransferDstOptimal:
		return "transfer-dst"
	case vk.ImageLayoutPresentSrc:
		return "present-src"
	default:
		return fmt.Sprintf("layout(%d)", int32(l))
	}
}
