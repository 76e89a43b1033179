// Command monitor runs a program in a window: the whole 64KiB of memory
// as a 256x256 bitmap with the program counter's bytes highlighted, plus
// a status line and the output of deferred macros.
//
// Space pauses and resumes; S executes a single command while paused.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"gomc/pkg/compiler"
	"gomc/pkg/config"
	"gomc/pkg/macros"
	"gomc/pkg/source"
	"gomc/pkg/vm"
)

const (
	memSide      = 256 // 65536 bytes, one pixel each
	scale        = 2
	consoleLines = 5
	lineHeight   = 14
	statusHeight = lineHeight*(consoleLines+1) + 8
)

// console collects macro output for the overlay, keeping the last lines.
type console struct {
	lines []string
	part  strings.Builder
}

func (c *console) Write(p []byte) (int, error) {
	for _, b := range p {
		if b != '\n' {
			c.part.WriteByte(b)
			continue
		}
		c.lines = append(c.lines, c.part.String())
		c.part.Reset()
		if len(c.lines) > consoleLines {
			c.lines = c.lines[len(c.lines)-consoleLines:]
		}
	}
	return len(p), nil
}

type Game struct {
	runner  *vm.Runner
	console *console
	face    *text.GoXFace
	speed   int

	memImg *ebiten.Image // reused 256x256 memory canvas
	pixels []byte
	paused bool
	err    error
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	steps := g.speed
	if g.paused {
		steps = 0
		if inpututil.IsKeyJustPressed(ebiten.KeyS) {
			steps = 1
		}
	}
	for i := 0; i < steps; i++ {
		// Keep the window open after the machine stops.
		if g.runner.Halted || g.err != nil {
			break
		}
		if err := g.runner.Step(); err != nil {
			g.err = err
			break
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.memImg == nil {
		g.memImg = ebiten.NewImage(memSide, memSide)
		g.pixels = make([]byte, memSide*memSide*4)
	}

	mem := g.runner.Mem.Bytes()
	for i, b := range mem {
		o := i * 4
		g.pixels[o] = b
		g.pixels[o+1] = b
		g.pixels[o+2] = b
		g.pixels[o+3] = 0xff
	}
	pc := int(g.runner.PC())
	for i := 0; i < vm.CommandSize && pc+i < len(mem); i++ {
		o := (pc + i) * 4
		g.pixels[o] = 0xff
		g.pixels[o+1] = 0x40
		g.pixels[o+2] = 0x40
	}
	g.memImg.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	screen.DrawImage(g.memImg, op)

	g.drawStatus(screen)
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	var b strings.Builder
	fmt.Fprintf(&b, "PC %s", g.runner.PC())
	switch {
	case g.err != nil:
		fmt.Fprintf(&b, "  fault: %v", g.err)
	case g.runner.Halted:
		fmt.Fprintf(&b, "  aborted: %v", g.runner.Cause)
	case g.paused:
		b.WriteString("  paused (S steps, space resumes)")
	}
	for _, line := range g.console.lines {
		b.WriteString("\n")
		b.WriteString(line)
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(4, float64(memSide*scale)+4)
	op.LineSpacing = lineHeight
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, b.String(), g.face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return memSide * scale, memSide*scale + statusHeight
}

func main() {
	steps := flag.Int("steps", 1000, "commands per frame")
	entryFlag := flag.String("entry", "", "load address (default 0xf000, or the project manifest's)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: monitor [flags] <file.mc | file.mco | project dir>")
		os.Exit(2)
	}

	prog, entry, err := load(flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *entryFlag != "" {
		entry, err = vm.ParseValue(*entryFlag)
		if err != nil {
			log.Fatalf("bad -entry: %v", err)
		}
	}

	cons := &console{}
	macros.Output = cons

	r := vm.NewRunner(vm.NewMemory())
	if err := prog.Load(r, entry); err != nil {
		log.Fatalf("load failed: %v", err)
	}
	if err := r.SetPC(entry); err != nil {
		log.Fatalf("set pc: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(memSide*scale, memSide*scale+statusHeight)
	ebiten.SetWindowTitle("gomc monitor")

	game := &Game{
		runner:  r,
		console: cons,
		face:    text.NewGoXFace(basicfont.Face7x13),
		speed:   *steps,
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

// load builds a program from a source file, an object file, or a project
// directory with an mc.toml.
func load(target string) (compiler.Program, vm.Value, error) {
	entry := vm.DefaultEntry

	st, err := os.Stat(target)
	if err != nil {
		return nil, 0, err
	}
	if st.IsDir() {
		cfg, err := config.Load(target)
		if err != nil {
			return nil, 0, err
		}
		entry, err = cfg.EntryAddress()
		if err != nil {
			return nil, 0, err
		}
		prog, err := compile(cfg.EntryPath())
		return prog, entry, err
	}
	if strings.HasSuffix(target, ".mco") {
		data, err := os.ReadFile(target)
		if err != nil {
			return nil, 0, err
		}
		prog, err := compiler.DecodeObject(data)
		return prog, entry, err
	}
	prog, err := compile(target)
	return prog, entry, err
}

func compile(path string) (compiler.Program, error) {
	c := compiler.New()
	if err := c.CompileFile(path); err != nil {
		var se *source.Error
		if errors.As(err, &se) {
			return nil, fmt.Errorf("compilation failed:\n%s", se.Render(c.Units()))
		}
		return nil, err
	}
	return c.Program(), nil
}
