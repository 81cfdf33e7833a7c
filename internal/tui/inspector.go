package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/f3rmion/posekit/internal/clipboard"
	"github.com/f3rmion/posekit/internal/introspect"
	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

const listWidth = 28

// InspectorModel is the Bubble Tea model for browsing a rig's bones.
type InspectorModel struct {
	title string
	rig   *scene.Object

	// Bone navigation
	bones    []*scene.Bone
	filtered []*scene.Bone
	cursor   int
	offset   int

	// Search
	searchInput textinput.Model
	searching   bool
	searchTerm  string

	// Clipboard
	copy    func(string) error
	copied  bool
	copyErr error

	// Display
	width  int
	height int
}

// clearCopiedMsg is sent to clear the copied indicator
type clearCopiedMsg struct{}

func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// NewInspector creates an inspector over rig. title is shown in the header.
func NewInspector(rig *scene.Object, title string) (InspectorModel, error) {
	if rig == nil || rig.Armature == nil {
		return InspectorModel{}, fmt.Errorf("object is not an armature")
	}

	si := textinput.New()
	si.Placeholder = "Filter bones..."
	si.CharLimit = 40
	si.Width = 24

	bones := rig.Armature.Bones()
	return InspectorModel{
		title:       title,
		rig:         rig,
		bones:       bones,
		filtered:    bones,
		searchInput: si,
		copy:        clipboard.Write,
	}, nil
}

// WithClipboard replaces the clipboard writer.
func (m InspectorModel) WithClipboard(fn func(string) error) InspectorModel {
	m.copy = fn
	return m
}

// Selected returns the bone under the cursor, or nil when the filter matches nothing.
func (m InspectorModel) Selected() *scene.Bone {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

// Init initializes the model.
func (m InspectorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m InspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
				m.searchInput.Blur()
				m.searchTerm = m.searchInput.Value()
				m.applyFilter()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchTerm)
				return m, nil
			default:
				var cmd tea.Cmd
				m.searchInput, cmd = m.searchInput.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.visibleRows())
		case "pgdown":
			m.move(m.visibleRows())
		case "home", "g":
			m.move(-len(m.filtered))
		case "end", "G":
			m.move(len(m.filtered))
		case "/":
			m.searching = true
			m.searchInput.Focus()
			return m, textinput.Blink
		case "c":
			m.searchTerm = ""
			m.searchInput.SetValue("")
			m.applyFilter()
		case "y":
			b := m.Selected()
			if b == nil {
				return m, nil
			}
			data, err := m.boneJSON(b.Name)
			if err == nil {
				err = m.copy(data)
			}
			m.copyErr = err
			if err == nil {
				m.copied = true
				return m, clearCopiedAfter(2 * time.Second)
			}
		}
		return m, nil

	case clearCopiedMsg:
		m.copied = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
	}

	return m, nil
}

func (m *InspectorModel) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	m.copied = false
	m.copyErr = nil
	m.clampOffset()
}

func (m *InspectorModel) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m InspectorModel) visibleRows() int {
	rows := m.height - 8
	if rows < 5 {
		rows = 5
	}
	return rows
}

// applyFilter keeps bones whose name contains the search term.
func (m *InspectorModel) applyFilter() {
	if m.searchTerm == "" {
		m.filtered = m.bones
	} else {
		term := strings.ToLower(m.searchTerm)
		m.filtered = nil
		for _, b := range m.bones {
			if strings.Contains(strings.ToLower(b.Name), term) {
				m.filtered = append(m.filtered, b)
			}
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m InspectorModel) boneJSON(name string) (string, error) {
	snap, ok := introspect.SnapshotBone(m.rig.Armature, name)
	if !ok {
		return "", fmt.Errorf("bone %q not found", name)
	}
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// View renders the UI.
func (m InspectorModel) View() string {
	var b strings.Builder

	header := TitleStyle.Render(" posekit ") + "  " + SubtitleStyle.Render("Rig Inspector")
	if m.title != "" {
		header += "  " + HelpStyle.Render(m.title)
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(SearchBoxStyle.Render("/ " + m.searchInput.View()))
		b.WriteString("\n\n")
	} else if m.searchTerm != "" {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("Filter: %q (press 'c' to clear)", m.searchTerm)))
		b.WriteString("\n\n")
	}

	detail := HelpStyle.Render("No bones match your filter")
	if sel := m.Selected(); sel != nil {
		detail = m.renderDetail(sel)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), " ", detail))
	b.WriteString("\n\n")

	help := "↑/↓: select • /: filter • y: copy bone JSON • q: quit"
	if m.copied {
		help = CopiedStyle.Render("✓ Copied!") + "  " + HelpStyle.Render(help)
	} else if m.copyErr != nil {
		help = ErrorStyle.Render("copy failed: "+m.copyErr.Error()) + "  " + HelpStyle.Render(help)
	} else {
		help = HelpStyle.Render(help)
	}
	b.WriteString(help)

	return b.String()
}

func (m InspectorModel) renderList() string {
	var lines []string
	end := m.offset + m.visibleRows()
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.offset; i < end; i++ {
		bone := m.filtered[i]
		depth := len(m.rig.Armature.Ancestors(bone.Name))
		label := truncate(strings.Repeat(" ", depth)+bone.Name, listWidth-2)

		var line string
		switch {
		case i == m.cursor:
			line = ListItemActiveStyle.Render("▸ " + label)
		case pose.BoneSide(bone.Name) == pose.SideLeft:
			line = "  " + LeftSideStyle.Render(label)
		case pose.BoneSide(bone.Name) == pose.SideRight:
			line = "  " + RightSideStyle.Render(label)
		default:
			line = "  " + ListItemStyle.Render(label)
		}
		lines = append(lines, line)
	}
	counter := CounterStyle.Render(fmt.Sprintf("%d/%d bones", min(m.cursor+1, len(m.filtered)), len(m.filtered)))
	lines = append(lines, "", counter)
	return ListStyle.Width(listWidth).Render(strings.Join(lines, "\n"))
}

func (m InspectorModel) renderDetail(bone *scene.Bone) string {
	snap, _ := introspect.SnapshotBone(m.rig.Armature, bone.Name)

	parent := "(none)"
	if snap.Parent != nil {
		parent = *snap.Parent
	}

	width := 60
	if m.width > 0 && m.width-listWidth-10 < width {
		width = max(m.width-listWidth-10, 20)
	}

	rows := [][2]string{
		{"Parent", parent},
		{"Path", snap.FullPath},
		{"Mode", string(snap.RotationMode)},
		{"Rotation", formatFloats(snap.Rotation)},
		{"Location", formatFloats(snap.Location[:])},
		{"Scale", formatFloats(snap.Scale[:])},
		{"Head", formatFloats(snap.Head[:])},
		{"Tail", formatFloats(snap.Tail[:])},
	}

	var lines []string
	for _, r := range rows {
		lines = append(lines, LabelStyle.Render(r[0]+":")+" "+ValueStyle.Render(wordWrap(r[1], width-14)))
	}

	if len(snap.CustomProperties) > 0 {
		keys := make([]string, 0, len(snap.CustomProperties))
		for k := range snap.CustomProperties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, "", SubtitleStyle.Render("Properties"))
		for _, k := range keys {
			lines = append(lines, "  "+LabelStyle.Render(truncate(k, 11))+" "+ValueStyle.Render(fmt.Sprint(snap.CustomProperties[k])))
		}
	}

	if len(snap.Constraints) > 0 {
		lines = append(lines, "", SubtitleStyle.Render("Constraints"))
		for _, c := range snap.Constraints {
			lines = append(lines, fmt.Sprintf("  %s %s %s",
				ValueStyle.Render(c.Name),
				HelpStyle.Render(c.Type),
				ValueStyle.Render(fmt.Sprintf("%.2f", c.Influence))))
		}
	}

	title := SubtitleStyle.Bold(true).Render(bone.Name)
	return BoxStyle.Width(width).Render(title + "\n\n" + strings.Join(lines, "\n"))
}
