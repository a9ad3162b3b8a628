// Package namify lowers the surface-level names and format strings the
// compiler's front end produces into the flattened, title-cased forms
// the Verilog and simulator-text back ends emit, the way core/emu.go's
// toTitleCase normalizes direction names before matching them.
package namify

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/eir/ir"
)

var titleCaser = cases.Title(language.English)

// TitleCase converts s to Title case (e.g. "south" -> "South"), the same
// normalization core/emu.go applies to direction names before comparing
// them against cgra.Side constants.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// Flatten turns a dotted hierarchical name ("tile.fifo.arg") into a single
// Verilog-legal identifier ("tile_fifo_arg") — dots aren't legal in
// Verilog identifiers, and module/signal names throughout spec.md's IR are
// built up dotted (module.port, stage.crossing-value).
func Flatten(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// Format lowers a spec.md §8 format string ("{}", "{:04d}") into a
// fmt-style verb usable by the simulator-text backend. dtype picks the
// bare "{}" placeholder's verb per spec.md §4.3: "%d" for integers/bits,
// "%s" for strings — SystemVerilog's $display has no generic-value
// specifier, so a blanket "%v" is never valid there. "{:0Nd}" always
// lowers to "%0Nd" regardless of dtype (only numeric values take a width).
func Format(spec string, dtype ir.DataType) (verb string, err error) {
	if spec == "{}" {
		if dtype.Kind == ir.Str {
			return "%s", nil
		}
		return "%d", nil
	}
	if !strings.HasPrefix(spec, "{:") || !strings.HasSuffix(spec, "}") {
		return "", fmt.Errorf("namify: malformed format spec %q", spec)
	}
	body := spec[2 : len(spec)-1]
	if !strings.HasSuffix(body, "d") {
		return "", fmt.Errorf("namify: unsupported format spec %q", spec)
	}
	width := body[:len(body)-1]
	if width == "" {
		return "%d", nil
	}
	zeroPad := strings.HasPrefix(width, "0")
	n, convErr := strconv.Atoi(strings.TrimPrefix(width, "0"))
	if convErr != nil || n <= 0 {
		return "", fmt.Errorf("namify: malformed width in format spec %q", spec)
	}
	if zeroPad {
		return fmt.Sprintf("%%0%dd", n), nil
	}
	return fmt.Sprintf("%%%dd", n), nil
}

// Lower expands a format string containing zero or more "{}"/"{:0Nd}"
// placeholders into a single fmt-style format string plus the count of
// placeholders consumed, for use with spec.md's Log(fmtStr, args...)
// builder operation. argTypes holds each placeholder's argument type, in
// order, so a bare "{}" lowers to "%d" or "%s" per Format; it is read
// only as far as count placeholders are found, so callers can pass
// exactly the Log expression's argument dtypes untruncated.
func Lower(fmtStr string, argTypes []ir.DataType) (string, int, error) {
	var out strings.Builder
	count := 0
	i := 0
	for i < len(fmtStr) {
		if fmtStr[i] != '{' {
			out.WriteByte(fmtStr[i])
			i++
			continue
		}
		end := strings.IndexByte(fmtStr[i:], '}')
		if end < 0 {
			return "", 0, fmt.Errorf("namify: unterminated format spec in %q", fmtStr)
		}
		end += i
		var dtype ir.DataType
		if count < len(argTypes) {
			dtype = argTypes[count]
		}
		verb, err := Format(fmtStr[i:end+1], dtype)
		if err != nil {
			return "", 0, err
		}
		out.WriteString(verb)
		count++
		i = end + 1
	}
	return out.String(), count, nil
}
