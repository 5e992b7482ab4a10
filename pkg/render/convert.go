package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/pathstep/pkg/errors"
)

// converter is the external SVG conversion tool.
const converter = "rsvg-convert"

// ToPDF converts SVG bytes to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG at scale (2.0 doubles the resolution).
// A non-positive scale means 1.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// Available reports whether the converter is on PATH.
func Available() bool {
	_, err := exec.LookPath(converter)
	return err == nil
}

// convert pipes svg through the converter. A missing converter yields an
// UNSUPPORTED error so callers can tell it apart from a failed conversion.
func convert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if !Available() {
		return nil, errors.Invalid(errors.ErrCodeUnsupported, format,
			"%s export needs %s (macOS: brew install librsvg, Linux: apt install librsvg2-bin)", format, converter)
	}

	cmd := exec.CommandContext(ctx, converter, append([]string{"-f", format}, extraArgs...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s %s: %s", converter, format, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
