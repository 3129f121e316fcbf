package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/vitals-engine/internal/worker"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

const (
	PlaceHolderText = "eat bread, walk, face smile 80 ... (help)"
	barWidth        = 24
	minMorphValue   = 0.5
)

// ConsoleUI is the BubbleTea model for the local vitals dashboard.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config  *ConsoleConfig
	session *worker.Session
	worker  *worker.Worker
	actions *localQueue
	feed    *feed

	bar          progress.Model
	logViewport  viewport.Model
	sideViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	status       string
	lastFrame    time.Time

	// Quit confirmation state
	showQuitModal bool
	showHelp      bool
}

type frameMsg time.Time

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var titleCase = cases.Title(language.English)

// label turns a stat or morph name into display text
func label(name string) string {
	return titleCase.String(strings.ReplaceAll(name, "_", " "))
}

func NewConsoleUI(cfg *ConsoleConfig, session *worker.Session, w *worker.Worker, actions *localQueue, f *feed) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 10)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		config:       cfg,
		session:      session,
		worker:       w,
		actions:      actions,
		feed:         f,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		logViewport:  logVp,
		sideViewport: viewport.New(30, 20),
		textarea:     ta,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, nextFrame(m.config.FrameInterval))
}

func nextFrame(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refresh()

	case frameMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			m.worker.Frame(now.Sub(m.lastFrame))
		}
		m.lastFrame = now
		m.refresh()
		return m, nextFrame(m.config.FrameInterval)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			return m.handleInput(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	cmd, err := parseCommand(m.session.ID, input)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return m, nil
	}

	switch cmd.Local {
	case "":
		m.actions.Push(cmd.Action)
		m.status = promptStyle.Render("queued " + string(cmd.Action.Type))
	case "help", "?":
		m.showHelp = !m.showHelp
		m.status = ""
	case "copy":
		data, err := json.MarshalIndent(m.session.Record(), "", "  ")
		if err == nil {
			err = clipboard.WriteAll(string(data))
		}
		if err != nil {
			m.status = errorStyle.Render("copy failed: " + err.Error())
		} else {
			m.status = okStyle.Render("snapshot copied to clipboard")
		}
	case "pause":
		if m.session.Clock.IsPaused() {
			m.session.Clock.Resume()
			m.status = okStyle.Render("resumed")
		} else {
			m.session.Clock.Pause()
			m.status = warnStyle.Render("paused")
		}
	case "speed":
		m.session.Clock.SetScale(cmd.Arg)
		m.status = okStyle.Render(fmt.Sprintf("time scale x%g", cmd.Arg))
	case "quit", "exit":
		m.showQuitModal = true
	}
	m.refresh()
	return m, nil
}

// layout sizes the panels: vitals on the left, body and belongings on the
// right, event log and input along the bottom
func (m *ConsoleUI) layout() {
	sideWidth := max(m.width/3, 30)
	logHeight := max(m.height/3, 5)

	m.sideViewport.Width = sideWidth - 3
	m.sideViewport.Height = m.height - logHeight - 4
	m.logViewport.Width = m.width - 4
	m.logViewport.Height = logHeight - 2
	m.textarea.SetWidth(m.width - 6)
}

func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	m.sideViewport.SetContent(m.renderSide())
	m.logViewport.SetContent(m.renderLog())
	m.logViewport.GotoBottom()
}

type gauge struct {
	name     string
	value    float64
	from, to float64
	unit     string
}

func (m ConsoleUI) gauges() []gauge {
	ch := m.session.Character
	cfg := ch.Config()
	st := ch.State()
	return []gauge{
		{"fullness", st.Fullness, 0, cfg.StomachCapacity, "ml"},
		{"intestines", st.IntestinesFullness, 0, cfg.IntestinesCapacity, "ml"},
		{"bladder", st.UrineVolume, 0, cfg.BladderCapacity, "ml"},
		{"hydration", st.Hydration, cfg.MinHydration, cfg.MaxHydration, ""},
		{"stamina", st.Stamina, 0, cfg.MaxStamina, ""},
		{"health", st.Health, cfg.MinHealth, cfg.MaxHealth, ""},
		{"weight", st.Weight, cfg.MinWeight, cfg.MaxWeight, "kg"},
		{"muscles", st.EffectiveMuscles(), cfg.MinMuscles, cfg.MaxMuscles, ""},
	}
}

func (m ConsoleUI) renderVitals() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("VITALS") + "\n\n")

	for _, g := range m.gauges() {
		pct := 0.0
		if g.to > g.from {
			pct = min(max((g.value-g.from)/(g.to-g.from), 0), 1)
		}
		fmt.Fprintf(&b, "%s %s %7.1f %s\n", labelStyle.Render(label(g.name)), m.bar.ViewAs(pct), g.value, g.unit)
	}

	ch := m.session.Character
	mv, sprinting := ch.Movement()
	movement := mv.String()
	if sprinting {
		movement += " (sprinting)"
	}
	fmt.Fprintf(&b, "\n%s %.0f kcal\n", labelStyle.Render("Calories"), ch.State().EffectiveCalories())
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Movement"), movement)
	if m.session.InDialogue() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Dialogue"), "in progress")
	}
	clk := m.session.Clock
	simTime := fmt.Sprintf("%s (x%g)", clk.Now().Truncate(time.Second), clk.Scale())
	if clk.IsPaused() {
		simTime += " paused"
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Sim time"), simTime)

	for _, c := range []vitals.Condition{vitals.ConditionStarvation, vitals.ConditionHealthDepleted} {
		if ch.Raised(c) {
			b.WriteString(errorStyle.Render("! "+label(string(c))) + "\n")
		}
	}
	return b.String()
}

func (m ConsoleUI) renderSide() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("BODY") + "\n\n")
	morphs := m.session.Morphs()
	names := slices.Sorted(maps.Keys(morphs))
	shown := 0
	for _, name := range names {
		v := morphs[name]
		if v < minMorphValue {
			continue
		}
		fmt.Fprintf(&b, "%-18s %5.1f %s\n", label(name), v, promptStyle.Render(morphSources(m.session.Character.MorphContributions(name))))
		shown++
	}
	if shown == 0 {
		b.WriteString(promptStyle.Render("neutral") + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("INVENTORY") + "\n\n")
	inv := m.session.Inventory
	fmt.Fprintf(&b, "Gold: %d   Free slots: %d/%d\n", inv.Gold(), inv.FreeSlots(), inv.Capacity())
	for _, s := range inv.Stacks() {
		fmt.Fprintf(&b, "• %s x%d\n", s.ItemID, s.Quantity)
	}

	loadout := m.session.Equipment.Loadout()
	if len(loadout) > 0 {
		b.WriteString("\n" + titleStyle.Render("WORN") + "\n\n")
		for _, slot := range slices.Sorted(maps.Keys(loadout)) {
			fmt.Fprintf(&b, "%-10s %s\n", label(string(slot)), loadout[slot])
			if s, ok := m.session.Equipment.Surface(slot); ok {
				b.WriteString(promptStyle.Render("  "+surfaceWeights(s)) + "\n")
			}
		}
	}

	if merchants := m.config.Merchants; len(merchants) > 0 {
		b.WriteString("\n" + titleStyle.Render("MERCHANTS") + "\n\n")
		b.WriteString(strings.Join(merchants, ", ") + "\n")
	}
	return b.String()
}

// morphSources lists the categories feeding a morph, in category order
func morphSources(contribs map[morph.Category]float64) string {
	var parts []string
	for _, c := range slices.Sorted(maps.Keys(contribs)) {
		if contribs[c] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s%+.0f", c, contribs[c]))
	}
	return strings.Join(parts, " ")
}

// surfaceWeights renders every blend shape on a worn mesh
func surfaceWeights(s *morph.MemorySurface) string {
	shapes := s.Shapes()
	parts := make([]string, 0, len(shapes))
	for _, shape := range shapes {
		parts = append(parts, fmt.Sprintf("%s %.0f", shape, s.Weight(shape)))
	}
	return strings.Join(parts, ", ")
}

func (m ConsoleUI) renderLog() string {
	width := max(m.logViewport.Width-2, 10)
	var b strings.Builder
	for _, l := range m.feed.Lines() {
		var tag string
		switch l.Kind {
		case "ok":
			tag = okStyle.Render("✓")
		case "error":
			tag = errorStyle.Render("✗")
		case "condition":
			tag = errorStyle.Render("!")
		case "log":
			tag = warnStyle.Render("~")
		default:
			tag = promptStyle.Render("·")
		}
		line := fmt.Sprintf("%s %s %s", l.At.Format("15:04:05"), tag, l.Text)
		b.WriteString(wordwrap.String(line, width) + "\n")
	}
	return b.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case frameMsg:
		// keep simulating behind the modal
		m.showQuitModal = false
		model, cmd := m.Update(msg)
		next := model.(ConsoleUI)
		next.showQuitModal = true
		return next, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("The character is not saved when the console exits.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	sideWidth := m.sideViewport.Width + 3
	left := m.renderVitals()
	if m.showHelp {
		left += "\n" + promptStyle.Render(helpText)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(m.width-sideWidth).Render(left),
		panelStyle.Width(sideWidth).Render(m.sideViewport.View()),
	)

	bottom := lipgloss.JoinVertical(lipgloss.Left,
		separatorStyle.Render(strings.Repeat("─", max(m.width-4, 1))),
		m.logViewport.View(),
		m.status,
		m.textarea.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, top, panelStyle.Render(bottom))
}
