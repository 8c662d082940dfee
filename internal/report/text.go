package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/docschema/internal/schema"
)

const (
	maxFieldWidth = 48
	columnGap     = 3
)

// painter applies color only when enabled.
type painter bool

func (p painter) paint(c color.Color, s string) string {
	if !p {
		return s
	}
	return c.Sprint(s)
}

func renderText(w io.Writer, res *schema.Result, opts Options) error {
	p := painter(opts.Color)
	tw := &textWriter{w: w}

	name := title(opts)
	if name == "" {
		name = "documents"
	}
	tw.header(p, "Schema: %s", name)
	tw.line("")

	tw.section(p, "Fields")
	tw.fieldTable(p, res.Aggregate)
	tw.line("")

	tw.section(p, "Summary")
	tw.keyValues(p, Summary(res))

	return tw.err
}

// Summary lists run statistics in display order.
func Summary(res *schema.Result) *orderedmap.OrderedMap[string, string] {
	m := orderedmap.NewOrderedMap[string, string]()
	m.Set("Mode", string(res.Mode))
	m.Set("Grouping", string(res.Grouping))
	m.Set("Estimated Count", fmt.Sprintf("%d", res.EstimatedCount))
	m.Set("Sample Size", fmt.Sprintf("%d", res.SampleSize))
	if res.Mode != schema.ModeServer {
		m.Set("Documents Read", fmt.Sprintf("%d", res.Sampled))
		m.Set("Malformed", fmt.Sprintf("%d", res.Malformed))
		m.Set("Distinct Shapes", fmt.Sprintf("%d (%d before completion)", res.DistinctShapes, res.RawShapes))
	}
	m.Set("Fields", fmt.Sprintf("%d", len(res.Aggregate)))
	m.Set("Batches Merged", fmt.Sprintf("%d", res.Batches))
	m.Set("Duration", res.Duration.Round(time.Millisecond).String())
	return m
}

// textWriter remembers the first write error so rendering code stays linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

// header prints a framed title.
func (t *textWriter) header(p painter, format string, args ...any) {
	title := fmt.Sprintf(format, args...)
	rule := strings.Repeat("=", runewidth.StringWidth(title)+4)
	t.line("%s", rule)
	t.line("  %s", p.paint(color.OpBold, title))
	t.line("%s", rule)
}

// section prints a section header.
func (t *textWriter) section(p painter, title string) {
	t.line("[%s]", p.paint(color.OpBold, title))
	t.line("%s", strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// fieldTable prints one aligned row per field. Wide field names are
// truncated by display width, not bytes.
func (t *textWriter) fieldTable(p painter, agg schema.Aggregate) {
	rows := orderedmap.NewOrderedMap[string, schema.TypeSet]()
	width := runewidth.StringWidth("FIELD")
	for _, f := range agg.Fields() {
		rows.Set(f, agg[f])
		width = max(width, min(runewidth.StringWidth(f), maxFieldWidth))
	}

	t.line("  %s%s", runewidth.FillRight("FIELD", width+columnGap), "TYPES")
	for el := rows.Front(); el != nil; el = el.Next() {
		name := runewidth.FillRight(runewidth.Truncate(el.Key, width, "…"), width+columnGap)
		t.line("  %s%s", p.paint(color.FgCyan, name), paintTypes(p, el.Value))
	}
	if rows.Len() == 0 {
		t.line("  %s", p.paint(color.FgGray, "(no fields)"))
	}
}

func paintTypes(p painter, ts schema.TypeSet) string {
	names := make([]string, 0, ts.Len())
	for _, tag := range ts.Tags() {
		c := color.FgGreen
		switch tag {
		case schema.TypeMissing:
			c = color.FgYellow
		case schema.TypeNull:
			c = color.FgGray
		case schema.TypeOther:
			c = color.FgMagenta
		}
		names = append(names, p.paint(c, tag.String()))
	}
	return strings.Join(names, ", ")
}

// keyValues prints label/value pairs with aligned values.
func (t *textWriter) keyValues(p painter, kv *orderedmap.OrderedMap[string, string]) {
	width := 0
	for _, k := range kv.Keys() {
		width = max(width, runewidth.StringWidth(k)+1)
	}
	for el := kv.Front(); el != nil; el = el.Next() {
		label := runewidth.FillRight(el.Key+":", width+2)
		t.line("  %s%s", p.paint(color.OpBold, label), el.Value)
	}
}
