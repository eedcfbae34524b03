package debug

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tog-format/go-tog/ir"
)

// dumper is configured for object graphs: pointer methods off so cyclic
// values print without invoking Stringers mid-cycle, and cycles render
// as already-seen markers instead of recursing.
var dumper = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func Logf(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}

// Dump renders an object graph, cycles included, for trace output and
// test failure messages.
func Dump(v any) string {
	return dumper.Sdump(v)
}

// Diff returns a readable inline diff of two dumps.
func Diff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffPrettyText(diffs)
}

var (
	tagColor    = color.New(color.FgYellow)
	anchorColor = color.New(color.FgCyan)
	scalarColor = color.New(color.FgGreen)
)

func init() {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		tagColor.DisableColor()
		anchorColor.DisableColor()
		scalarColor.DisableColor()
	}
}

// Node renders an ir.Node in a compact single-line form with tags and
// anchors highlighted.
func Node(y *ir.Node) string {
	var b strings.Builder
	writeNode(&b, y)
	return b.String()
}

func writeNode(b *strings.Builder, y *ir.Node) {
	if y == nil {
		b.WriteString("<nil>")
		return
	}
	if y.Tag != "" {
		b.WriteString(tagColor.Sprintf("!%s ", y.Tag))
	}
	if y.Anchor != "" {
		b.WriteString(anchorColor.Sprintf("&%s ", y.Anchor))
	}
	switch y.Type {
	case ir.NullType:
		b.WriteString(scalarColor.Sprint("null"))
	case ir.BoolType:
		b.WriteString(scalarColor.Sprintf("%t", y.Bool))
	case ir.StringType:
		b.WriteString(scalarColor.Sprintf("%q", y.String))
	case ir.NumberType:
		switch {
		case y.Int64 != nil:
			b.WriteString(scalarColor.Sprintf("%d", *y.Int64))
		case y.Float64 != nil:
			b.WriteString(scalarColor.Sprintf("%g", *y.Float64))
		default:
			b.WriteString(scalarColor.Sprint(y.Number))
		}
	case ir.AliasType:
		b.WriteString(anchorColor.Sprintf("*%s", y.Alias))
	case ir.ArrayType:
		b.WriteString("[")
		for i, v := range y.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, v)
		}
		b.WriteString("]")
	case ir.ObjectType:
		b.WriteString("{")
		for i := range y.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, y.Fields[i])
			b.WriteString(": ")
			writeNode(b, y.Values[i])
		}
		b.WriteString("}")
	}
}
