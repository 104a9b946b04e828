//go:build !headless

package video

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"
)

// hostKeys maps the keypad keys 0-F to the keyboard, using the common layout
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var hostKeys = [chip8.NumKeys]ebiten.Key{
	ebiten.KeyX,
	ebiten.Key1, ebiten.Key2, ebiten.Key3,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD,
	ebiten.KeyZ, ebiten.KeyC,
	ebiten.Key4, ebiten.KeyR, ebiten.KeyF, ebiten.KeyV,
}

// Game runs the emulator in the ebiten game loop.
type Game struct {
	ctx      context.Context
	logger   *log.Logger
	emulator *emulator.Emulator
	scale    int

	faultReported bool

	window *ebiten.Image
	pixels []byte
}

// NewGame returns a game for the emulator, shown with the given scale.
func NewGame(ctx context.Context, logger *log.Logger, emu *emulator.Emulator, scale int) *Game {
	return &Game{
		ctx:      ctx,
		logger:   logger,
		emulator: emu,
		scale:    scale,
		pixels:   make([]byte, chip8.ScreenWidth*chip8.ScreenHeight*bytesPerPixel),
	}
}

// Run opens a window and runs the emulator until the window is closed,
// Escape is pressed or the context is canceled.
func Run(ctx context.Context, logger *log.Logger, emu *emulator.Emulator, title string, display options.Display) error {
	game := NewGame(ctx, logger, emu, display.Scale)

	ebiten.SetWindowSize(chip8.ScreenWidth*display.Scale, chip8.ScreenHeight*display.Scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(emulator.FrameRate)

	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	return nil
}

// Update reads the keyboard and advances the emulator by one frame.
func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := g.emulator.Reset(); err != nil {
			return fmt.Errorf("resetting emulator: %w", err)
		}
		g.faultReported = false
		g.logger.Info("Program restarted")
	}

	for index, key := range hostKeys {
		if err := g.emulator.SetKey(index, ebiten.IsKeyPressed(key)); err != nil {
			return err
		}
	}

	g.advance()
	return nil
}

// advance runs the emulator for one frame. A fault is logged once and stays
// on screen until the program is restarted.
func (g *Game) advance() {
	err := g.emulator.Advance(emulator.FrameInterval)
	if err == nil || g.faultReported {
		return
	}
	g.faultReported = true
	g.logger.Error("Running program failed", log.Err(err))
}

// Draw renders the display scaled to the window and the overlay message.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.window == nil {
		g.window = ebiten.NewImage(chip8.ScreenWidth, chip8.ScreenHeight)
	}

	machine := g.emulator.Machine()
	display := machine.Display()
	fillPixels(g.pixels, &display)
	g.window.WritePixels(g.pixels)

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.window, opts)

	if message := overlayMessage(machine, g.emulator.Err()); message != "" {
		face := basicfont.Face7x13
		text.Draw(screen, message, face, 4, face.Metrics().Height.Ceil()+2, textFg)
	}
}

// Layout returns the fixed size of the scaled display.
func (g *Game) Layout(_, _ int) (int, int) {
	return chip8.ScreenWidth * g.scale, chip8.ScreenHeight * g.scale
}
