//go:build headless

package video

import (
	"context"

	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Run returns ErrNotSupported, windows are not available in this build.
func Run(_ context.Context, _ *log.Logger, _ *emulator.Emulator, _ string, _ options.Display) error {
	return ErrNotSupported
}
