package listing

import (
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
)

const dataBytesPerLine = 16

// Write writes the listing: labels, one line per instruction with its
// address and opcode as comment, and unreached bytes as data lines.
func (p *Program) Write(w io.Writer) error {
	if err := p.writeCommentHeader(w); err != nil {
		return err
	}

	previousLineWasCode := false
	for index := 0; index < len(p.offsets); {
		o := p.offsets[index]
		isCode := o.typ == codeOffset

		if o.label != "" {
			if err := writeLabel(w, index, o.label); err != nil {
				return err
			}
		} else if index > 0 && isCode != previousLineWasCode {
			// print an empty line in case of data after code and vice versa
			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf("writing line: %w", err)
			}
		}
		previousLineWasCode = isCode

		if isCode {
			if err := p.writeCodeLine(w, index); err != nil {
				return err
			}
			index += 2
			continue
		}

		count := p.dataRun(index)
		if err := writeDataLine(w, p.data[index:index+count]); err != nil {
			return err
		}
		index += count
	}
	return nil
}

func (p *Program) writeCommentHeader(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "; Program size: %d bytes\n", len(p.data)); err != nil {
		return fmt.Errorf("writing program size: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; CRC32 checksum: %08x\n", crc32.ChecksumIEEE(p.data)); err != nil {
		return fmt.Errorf("writing checksum: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; Code base address: $%04x\n\n", chip8.ProgramStart); err != nil {
		return fmt.Errorf("writing code base address: %w", err)
	}
	return nil
}

func writeLabel(w io.Writer, index int, label string) error {
	if index > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
		return fmt.Errorf("writing label: %w", err)
	}
	return nil
}

func (p *Program) writeCodeLine(w io.Writer, index int) error {
	ins := p.offsets[index].instruction
	address := chip8.ProgramStart + index
	if _, err := fmt.Fprintf(w, "  %-30s ; $%03X %04X\n", ins.String(), address, ins.Opcode); err != nil {
		return fmt.Errorf("writing code line: %w", err)
	}
	return nil
}

// dataRun returns the number of data bytes starting at index that can be
// written as one line.
func (p *Program) dataRun(index int) int {
	count := 1
	for index+count < len(p.offsets) && count < dataBytesPerLine {
		o := p.offsets[index+count]
		if o.typ == codeOffset || o.label != "" {
			break
		}
		count++
	}
	return count
}

func writeDataLine(w io.Writer, data []byte) error {
	buf := &strings.Builder{}
	buf.WriteString(".byte ")
	for _, b := range data {
		buf.WriteString(fmt.Sprintf("$%02x, ", b))
	}

	line := strings.TrimRight(buf.String(), ", ")
	if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
		return fmt.Errorf("writing data line: %w", err)
	}
	return nil
}
