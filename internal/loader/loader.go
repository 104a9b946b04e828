// Package loader handles program file loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
)

// ErrEmptyProgram is returned for program files without content.
var ErrEmptyProgram = errors.New("empty program")

// knownExtensions lists the file extensions commonly used for CHIP-8 programs.
var knownExtensions = map[string]struct{}{
	".ch8": {},
	".c8":  {},
	".rom": {},
}

// Loader handles loading program files from disk.
type Loader struct {
	logger *log.Logger
}

// New creates a new program loader.
func New(logger *log.Logger) *Loader {
	return &Loader{
		logger: logger,
	}
}

// Load reads a raw CHIP-8 program image from the given file.
// Programs larger than the available program memory are rejected.
func (l *Loader) Load(path string) ([]byte, error) {
	if !HasKnownExtension(path) {
		l.logger.Debug("Unknown program file extension, loading as raw CHIP-8 image",
			log.String("file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	data, err := l.LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("loading program %s: %w", path, err)
	}

	l.logger.Debug("Program loaded",
		log.String("file", path),
		log.Int("size", len(data)))
	return data, nil
}

// LoadFromReader reads a raw CHIP-8 program image from the reader.
func (l *Loader) LoadFromReader(reader io.Reader) ([]byte, error) {
	// read one byte more than allowed to detect oversized images without
	// reading arbitrary large files into memory
	data, err := io.ReadAll(io.LimitReader(reader, chip8.MaxProgramSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	switch {
	case len(data) == 0:
		return nil, ErrEmptyProgram
	case len(data) > chip8.MaxProgramSize:
		return nil, fmt.Errorf("%w: more than %d bytes", chip8.ErrProgramTooLarge, chip8.MaxProgramSize)
	}
	return data, nil
}

// HasKnownExtension returns whether the file name uses a common CHIP-8
// program file extension.
func HasKnownExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := knownExtensions[ext]
	return ok
}
