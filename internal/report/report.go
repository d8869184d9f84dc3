// Package report writes the human-readable transcript of a test run.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 70

// Reporter prints test progress. Styles come from a renderer bound to the
// output, so writers that are not terminals get plain text. It is safe for
// concurrent use.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer

	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	info   lipgloss.Style
	action lipgloss.Style
	dim    lipgloss.Style
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		pass:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		info:   r.NewStyle().Foreground(lipgloss.Color("39")),
		action: r.NewStyle().Foreground(lipgloss.Color("214")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (r *Reporter) println(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(r.w, l)
	}
}

// Header prints a framed section title.
func (r *Reporter) Header(title string) {
	rule := strings.Repeat("=", ruleWidth)
	r.println("", rule, r.header.Render(" "+title), rule)
}

// Test announces test n.
func (r *Reporter) Test(n int, title string) {
	r.println("", r.header.Render(fmt.Sprintf("[Test %d] %s", n, title)), strings.Repeat("-", ruleWidth))
}

// Result prints the outcome of a test.
func (r *Reporter) Result(ok bool, format string, args ...any) {
	status := r.pass.Render("[PASS]")
	if !ok {
		status = r.fail.Render("[FAIL]")
	}
	r.println(status + " " + fmt.Sprintf(format, args...))
}

func (r *Reporter) Info(format string, args ...any) {
	r.println(r.info.Render("[INFO]") + " " + fmt.Sprintf(format, args...))
}

func (r *Reporter) OK(format string, args ...any) {
	r.println(r.pass.Render("[OK]") + " " + fmt.Sprintf(format, args...))
}

func (r *Reporter) Success(format string, args ...any) {
	r.println("", r.pass.Render("[SUCCESS]")+" "+fmt.Sprintf(format, args...))
}

// Note asks the operator to check something in the DAW.
func (r *Reporter) Note(format string, args ...any) {
	r.println("   " + r.action.Render("[Action]") + " " + fmt.Sprintf(format, args...))
}

// Received echoes one feedback message.
func (r *Reporter) Received(address string, args []interface{}) {
	r.println(r.dim.Render(fmt.Sprintf("   [Received] %s: %v", address, args)))
}

// Line prints format verbatim.
func (r *Reporter) Line(format string, args ...any) {
	r.println(fmt.Sprintf(format, args...))
}

func (r *Reporter) Error(err error) {
	r.println("", r.fail.Render("[ERROR]")+" Test failed: "+err.Error())
}

// List prints a titled block of lines, indented.
func (r *Reporter) List(title string, items []string) {
	if len(items) == 0 {
		return
	}
	lines := []string{"", title + ":"}
	for _, it := range items {
		lines = append(lines, "  "+it)
	}
	r.println(lines...)
}

// Troubleshoot prints numbered troubleshooting tips.
func (r *Reporter) Troubleshoot(tips []string) {
	if len(tips) == 0 {
		return
	}
	lines := []string{"", "Troubleshooting:"}
	for i, tip := range tips {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, tip))
	}
	r.println(lines...)
}
