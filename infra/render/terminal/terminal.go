// Package terminal renders the dashboard as a text frame styled with
// lipgloss. The frame is redrawn on every state change.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/modal"
	"github.com/kilianp07/kmrl-dash/core/notify"
	"github.com/kilianp07/kmrl-dash/core/view"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	barWidth    = 30
)

var (
	green  = lipgloss.Color("#10b981")
	red    = lipgloss.Color("#ef4444")
	amber  = lipgloss.Color("#f59e0b")
	blue   = lipgloss.Color("#3b82f6")
	subtle = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true)
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	modalStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 1)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(subtle)
)

// Terminal implements every view surface, notify.Toaster, modal.Surface and
// both chart surfaces.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	clear  bool
	cards  []view.StatCard
	health view.HealthBadge
	rows   []view.TableRow
	conn   view.ConnectionBadge
	busy   bool
	clock  string
	toasts []toast
	modals []modal.Modal
	dist   chart.Distribution
	points []chart.MetricPoint
	result string
}

type toast struct {
	n       notify.Notification
	leaving bool
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithClearScreen clears the screen before each frame.
func WithClearScreen(on bool) Option {
	return func(t *Terminal) { t.clear = on }
}

// New returns a terminal target writing frames to out.
func New(out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{out: out, conn: view.Connection(false)}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Terminal) RenderStatus(cards []view.StatCard, h view.HealthBadge) {
	t.update(func() { t.cards, t.health = cards, h })
}

func (t *Terminal) RenderSchedule(rows []view.TableRow) {
	t.update(func() { t.rows = rows })
}

func (t *Terminal) RenderConnection(c view.ConnectionBadge) {
	t.update(func() { t.conn = c })
}

func (t *Terminal) SetBusy(busy bool) {
	t.update(func() { t.busy = busy })
}

func (t *Terminal) RenderClock(label string) {
	t.update(func() { t.clock = label })
}

func (t *Terminal) RenderPrediction(text string) {
	t.update(func() { t.result = text })
}

func (t *Terminal) RenderWhatIf(text string) {
	t.update(func() { t.result = text })
}

func (t *Terminal) ShowToast(n notify.Notification) {
	t.update(func() { t.toasts = append(t.toasts, toast{n: n}) })
}

func (t *Terminal) HideToast(n notify.Notification) {
	t.update(func() {
		for i := range t.toasts {
			if t.toasts[i].n.ID == n.ID {
				t.toasts[i].leaving = true
			}
		}
	})
}

func (t *Terminal) RemoveToast(n notify.Notification) {
	t.update(func() {
		kept := t.toasts[:0]
		for _, x := range t.toasts {
			if x.n.ID != n.ID {
				kept = append(kept, x)
			}
		}
		t.toasts = kept
	})
}

func (t *Terminal) ShowModal(m modal.Modal) {
	t.update(func() {
		t.modals = removeModal(t.modals, m.ID)
		t.modals = append(t.modals, m)
	})
}

func (t *Terminal) HideModal(m modal.Modal) {
	t.update(func() { t.modals = removeModal(t.modals, m.ID) })
}

func (t *Terminal) DrawDistribution(d chart.Distribution) {
	t.update(func() { t.dist = d })
}

func (t *Terminal) DrawMetrics(points []chart.MetricPoint) {
	t.update(func() { t.points = append([]chart.MetricPoint(nil), points...) })
}

// Frame returns the current frame.
func (t *Terminal) Frame() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame()
}

func (t *Terminal) update(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
	if t.out == nil {
		return
	}
	frame := t.frame()
	if t.clear {
		frame = clearScreen + frame
	}
	_, _ = io.WriteString(t.out, frame+"\n")
}

func (t *Terminal) frame() string {
	parts := []string{t.header()}
	if len(t.cards) > 0 {
		parts = append(parts, t.statusRow())
	}
	parts = append(parts, t.charts(), t.table())
	if t.result != "" {
		parts = append(parts, panelStyle.Render(t.result))
	}
	for _, m := range t.modals {
		parts = append(parts, modalStyle.Render(titleStyle.Render(m.Title)+"\n"+m.Content))
	}
	if len(t.toasts) > 0 {
		parts = append(parts, t.toastList())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (t *Terminal) header() string {
	color := red
	if t.conn.Connected {
		color = green
	}
	link := lipgloss.NewStyle().Foreground(color).Render("● " + t.conn.Text)
	line := titleStyle.Render("KMRL Train Scheduling") + "  " + link
	if t.clock != "" {
		line += "  " + dimStyle.Render(t.clock)
	}
	if t.busy {
		line += "  " + lipgloss.NewStyle().Foreground(blue).Render("Loading...")
	}
	return line
}

func (t *Terminal) statusRow() string {
	boxes := make([]string, 0, len(t.cards)+1)
	for _, c := range t.cards {
		boxes = append(boxes, cardStyle.Render(dimStyle.Render(c.Title)+"\n"+titleStyle.Render(c.Value)))
	}
	health := lipgloss.NewStyle().Foreground(healthColor(t.health.Indicator)).Bold(true)
	boxes = append(boxes, cardStyle.Render(dimStyle.Render("System Health")+"\n"+health.Render(t.health.Text)))
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (t *Terminal) charts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Fleet Distribution"))
	peak := 0.0
	for _, v := range t.dist.Values {
		if v > peak {
			peak = v
		}
	}
	for i, label := range t.dist.Labels {
		if label == "" {
			continue
		}
		v := t.dist.Values[i]
		n := 0
		if peak > 0 {
			n = int(v / peak * barWidth)
		}
		fmt.Fprintf(&b, "\n%-12s %s %g", label, strings.Repeat("█", n), v)
	}
	s := chart.Summarize(t.points)
	b.WriteString("\n" + titleStyle.Render("Performance Metrics"))
	if s.Points == 0 {
		b.WriteString("\n" + dimStyle.Render("no samples"))
		return b.String()
	}
	fmt.Fprintf(&b, "\n%d samples  delay %.1f min (mean %.2f, sd %.2f)  active %.0f (mean %.1f)",
		s.Points, s.LatestDelay, s.MeanDelay, s.StdDevDelay, s.LatestActive, s.MeanActive)
	return b.String()
}

func (t *Terminal) table() string {
	if len(t.rows) == 0 || t.rows[0].Empty {
		msg := view.NoScheduleMessage
		if len(t.rows) > 0 {
			msg = t.rows[0].Message
		}
		return panelStyle.Render(dimStyle.Render(msg))
	}
	rows := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		rows = append(rows, []string{r.TrainID, r.Status, r.Score, r.Fitness, r.JobCards, r.Branding, r.Delay})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Train", "Status", "Score", "Fitness", "Job Cards", "Branding", "Delay (min)").
		Rows(rows...).
		String()
}

func (t *Terminal) toastList() string {
	lines := make([]string, 0, len(t.toasts))
	for _, x := range t.toasts {
		style := lipgloss.NewStyle().Foreground(kindColor(x.n.Kind))
		if x.leaving {
			style = dimStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("[%s] %s", x.n.Kind, x.n.Message)))
	}
	return strings.Join(lines, "\n")
}

func removeModal(ms []modal.Modal, id string) []modal.Modal {
	out := ms[:0]
	for _, m := range ms {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func healthColor(indicator string) lipgloss.Color {
	switch indicator {
	case "good":
		return green
	case "warning":
		return amber
	default:
		return red
	}
}

func kindColor(k notify.Kind) lipgloss.Color {
	switch k {
	case notify.KindSuccess:
		return green
	case notify.KindWarning:
		return amber
	case notify.KindError:
		return red
	default:
		return blue
	}
}
