// Package report renders run statistics: a styled text summary for
// terminals, JSON and YAML documents for automation, the misclassified
// rows as TSV, and a progress bar while requests are in flight.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/eval"
	"github.com/greynewell/intentbench/stats"
)

type styles struct {
	url   lipgloss.Style
	count lipgloss.Style
	ms    lipgloss.Style
	pct   lipgloss.Style
	score lipgloss.Style
	name  lipgloss.Style
	dim   lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
}

// newStyles binds styles to w so color is dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		url:   r.NewStyle().Foreground(lipgloss.Color("4")).Underline(true),
		count: r.NewStyle().Foreground(lipgloss.Color("6")),
		ms:    r.NewStyle().Foreground(lipgloss.Color("3")),
		pct:   r.NewStyle().Foreground(lipgloss.Color("2")),
		score: r.NewStyle().Foreground(lipgloss.Color("2")),
		name:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		dim:   r.NewStyle().Faint(true),
		err:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// Banner prints the pre-run header: the target URL.
func Banner(w io.Writer, url string) {
	s := newStyles(w)
	fmt.Fprintf(w, "Using base URL: %s\n", s.url.Render(url))
}

// Loaded reports how many rows were read and from where.
func Loaded(w io.Writer, rows int, source string) {
	s := newStyles(w)
	fmt.Fprintf(w, "Read %s lines from %s\n", s.count.Render(strconv.Itoa(rows)), s.name.Render(source))
}

// Models prints the served models, marking the selected one.
func Models(w io.Writer, info *client.Info, selected int) {
	if info == nil || len(info.Models) == 0 {
		return
	}
	s := newStyles(w)
	for i, m := range info.Models {
		marker := " "
		if i == selected {
			marker = "*"
		}
		fmt.Fprintf(w, "%s model %s %s %s\n", marker, s.name.Render(m.Name), s.dim.Render(m.Path), s.dim.Render("["+m.Key+"]"))
	}
	if info.Version != "" {
		fmt.Fprintf(w, "  service version %s\n", s.dim.Render(info.Version))
	}
}

// Empty prints the error shown for a dataset with no rows.
func Empty(w io.Writer) {
	s := newStyles(w)
	fmt.Fprintln(w, s.err.Render("No test data found"))
}

// Text writes the human-readable summary.
func Text(w io.Writer, st *eval.Statistics) error {
	s := newStyles(w)
	ms := func(d time.Duration) string {
		return s.ms.Render(strconv.FormatInt(d.Milliseconds(), 10)) + "ms"
	}
	count := func(n int) string { return s.count.Render(strconv.Itoa(n)) }
	l := st.Latency

	var b strings.Builder
	b.WriteString("\n")
	if st.Interrupted {
		b.WriteString(s.warn.Render("Run interrupted, statistics are partial") + "\n")
	}
	if st.ReadyWait >= time.Second {
		fmt.Fprintf(&b, "Waited %s for the API to become ready\n", s.ms.Render(seconds(st.ReadyWait))+"s")
	}
	fmt.Fprintf(&b, "Request time: min %s, max %s, avg %s ± %s, 50%% %s, 95%% %s\n",
		ms(l.Min), ms(l.Max), ms(l.Mean), ms(l.StdDev), ms(l.Median), ms(l.P95))
	fmt.Fprintf(&b, "Real time elapsed: %s (%s requests per second)\n",
		s.ms.Render(seconds(st.Elapsed))+"s", count(int(st.Throughput)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Received %s correct and %s incorrect answers (%s failed)\n",
		count(st.Correct), count(st.Incorrect), count(st.Failed))
	fmt.Fprintf(&b, "Accuracy: %s%%\n", s.pct.Render(strconv.FormatFloat(100*st.Accuracy, 'f', 2, 64)))
	b.WriteString("\n")
	b.WriteString("F1 scores for each class:\n")
	for _, c := range st.Scores {
		fmt.Fprintf(&b, "  %s (%s, %s, %s): %s\n", c.Label,
			count(c.TruePositive), count(c.FalseNegative), count(c.FalsePositive), s.score.Render(score(c.F1)))
	}
	fmt.Fprintf(&b, "  %s (%s): %s\n", stats.AverageLabel, count(st.Average.Labels), s.score.Render(score(st.Average.F1)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// seconds formats d with one decimal, or none when it is whole.
func seconds(d time.Duration) string {
	v := d.Seconds()
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// score prints two significant digits, always with a decimal point.
func score(v float64) string {
	out := strconv.FormatFloat(v, 'g', 2, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return out
}
