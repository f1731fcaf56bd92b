// Package report renders scenario reports for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/danihelis/algorithms/pkg/scenario"
)

// maxShownSymbols caps how much of the final sequence is printed.
const maxShownSymbols = 32

// Renderer writes scenario reports as tables.
type Renderer struct {
	pass *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewRenderer creates a Renderer. With noColor set, no ANSI escapes are emitted.
func NewRenderer(noColor bool) *Renderer {
	r := &Renderer{
		pass: color.New(color.FgGreen),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}

	if noColor {
		r.pass.DisableColor()
		r.fail.DisableColor()
		r.dim.DisableColor()
	}

	return r
}

// Render writes the step table, the final sequence and a summary line to w.
func (r *Renderer) Render(w io.Writer, rep *scenario.Report) error {
	title := rep.Name
	if title == "" {
		title = rep.Algebra
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("%s (%s)", title, rep.Algebra))
	tbl.AppendHeader(table.Row{"#", "op", "range", "value", "expected", "status", "detail"})

	for _, res := range rep.Results {
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		}

		tbl.AppendRow(table.Row{
			res.Index,
			res.Op,
			fmt.Sprintf("[%d, %d)", res.From, res.To),
			res.Value,
			res.Expected,
			r.status(res.Status),
			detail,
		})
	}

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s %s\n", r.dim.Sprint("final:"), formatSymbols(rep.Symbols))
	if err != nil {
		return fmt.Errorf("write symbols: %w", err)
	}

	_, err = fmt.Fprintln(w, r.summary(rep))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func (r *Renderer) status(status string) string {
	switch status {
	case scenario.StatusPass:
		return r.pass.Sprint(status)
	case scenario.StatusFail:
		return r.fail.Sprint(status)
	default:
		return status
	}
}

func (r *Renderer) summary(rep *scenario.Report) string {
	failed := rep.Failed()

	line := fmt.Sprintf("%s positions, %s steps, %s failed in %s",
		humanize.Comma(int64(rep.Length)),
		humanize.Comma(int64(len(rep.Results))),
		humanize.Comma(int64(failed)),
		rep.Elapsed,
	)

	if failed > 0 {
		return r.fail.Sprint(line)
	}

	return r.pass.Sprint(line)
}

func formatSymbols(symbols []int64) string {
	shown := symbols
	if len(shown) > maxShownSymbols {
		shown = shown[:maxShownSymbols]
	}

	parts := make([]string, len(shown))
	for i, s := range shown {
		parts[i] = fmt.Sprint(s)
	}

	out := "[" + strings.Join(parts, " ") + "]"

	if hidden := len(symbols) - len(shown); hidden > 0 {
		out += fmt.Sprintf(" (+%s more)", humanize.Comma(int64(hidden)))
	}

	return out
}
