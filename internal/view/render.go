package view

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	defaultWidth = 80
	pidWidth     = 8
	rateWidth    = 14
	minNameWidth = 8

	clearScreen = "\033[H\033[2J"
)

// Renderer prints a Table as fixed-width text.
type Renderer struct {
	out     io.Writer
	width   int
	maxRows int
	clear   bool
}

// NewRenderer creates a renderer writing to out. When out is a terminal its
// width sizes the name column and each frame clears the screen first.
// maxRows <= 0 prints every row.
func NewRenderer(out io.Writer, maxRows int) *Renderer {
	r := &Renderer{out: out, width: defaultWidth, maxRows: maxRows}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			r.width = w
		}
		r.clear = true
	}
	return r
}

// Render writes the aggregate header followed by the rows of t.
func (r *Renderer) Render(t *Table) error {
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}

	st := t.Stats()
	fmt.Fprintf(&b, "Total read: %s (max %s)   Total write: %s (max %s)   Processes: %d\n\n",
		FormatRate(st.TotalRead), FormatRate(st.MaximumRead),
		FormatRate(st.TotalWrite), FormatRate(st.MaximumWrite),
		t.Len())

	nameWidth := r.width - pidWidth - 2*rateWidth - 3
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}

	fmt.Fprintf(&b, "%*s %-*s %*s %*s\n",
		pidWidth, "PID", nameWidth, "NAME", rateWidth, "READ", rateWidth, "WRITE")

	for i, row := range t.rows {
		if r.maxRows > 0 && i >= r.maxRows {
			break
		}
		fmt.Fprintf(&b, "%*s %-*s %*s %*s\n",
			pidWidth, PIDString(row.PID),
			nameWidth, truncate(row.Name, nameWidth),
			rateWidth, row.Read,
			rateWidth, row.Write)
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}
