package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/drop"
	"github.com/vanderheijden86/sharptree/pkg/fsnode"
	"github.com/vanderheijden86/sharptree/pkg/state"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Options configure the program.
type Options struct {
	Title            string
	ShowLines        bool
	ShowRootExpander bool
	AllowReorder     bool
	AllowDelete      bool
	ShowHidden       bool
	ExpandDepth  int // default expansion depth, used for state capture
	StatePath    string
	// Save writes the tree back to its source; nil disables the save key.
	Save    func() error
	Watcher *fsnode.Watcher
	// Clipboard replaces the system clipboard, mainly for tests.
	Clipboard func(string) error
}

type mode int

const (
	modeNormal mode = iota
	modeRename
	modeHelp
)

// FSChangedMsg reports folders that changed on disk.
type FSChangedMsg struct {
	Dirs []string
}

// Model is the bubbletea model of the tree browser.
type Model struct {
	root     *tree.Node
	tree     *TreeModel
	resolver drop.Resolver
	opts     Options
	theme    Theme

	mode     mode
	input    textinput.Model
	renaming *tree.Node
	helpText string

	moving     []*tree.Node
	showHidden bool
	status     string
	statusErr  bool

	width  int
	height int
}

// NewModel creates the browser for the projection f.
func NewModel(f *tree.Flattener, opts Options) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	tm := NewTreeModel(f, theme)
	tm.SetShowLines(opts.ShowLines)
	tm.SetShowRootExpander(opts.ShowRootExpander)

	ti := textinput.New()
	ti.Placeholder = "new name"
	ti.CharLimit = 255
	ti.Width = 40

	m := Model{
		root:     f.Root(),
		tree:     tm,
		resolver: drop.Resolver{AllowReorder: opts.AllowReorder},
		opts:     opts,
		theme:    theme,
		input:    ti,

		showHidden: opts.ShowHidden,
	}
	return m
}

// Tree returns the list view.
func (m Model) Tree() *TreeModel { return m.tree }

// WatchCmd waits for the next batch of changed folders.
func WatchCmd(w *fsnode.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		dirs, ok := <-w.Changes()
		if !ok {
			return nil
		}
		return FSChangedMsg{Dirs: dirs}
	}
}

func (m Model) Init() tea.Cmd {
	return WatchCmd(m.opts.Watcher)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tree.SetSize(msg.Width, max(msg.Height-2, 1))
		if m.mode == modeHelp {
			m.helpText = renderHelp(m.width)
		}
		return m, nil

	case FSChangedMsg:
		m.refresh(msg.Dirs)
		return m, WatchCmd(m.opts.Watcher)

	case tea.KeyMsg:
		switch m.mode {
		case modeRename:
			return m.updateRename(msg)
		case modeHelp:
			switch msg.String() {
			case "q", "esc", "?":
				m.mode = modeNormal
			}
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.statusErr = "", false
	t := m.tree

	switch msg.String() {
	case "q", "ctrl+c":
		m.saveState()
		t.Close()
		return m, tea.Quit
	case "j", "down":
		t.MoveDown()
	case "k", "up":
		t.MoveUp()
	case "pgdown", "ctrl+d":
		t.PageDown()
	case "pgup", "ctrl+u":
		t.PageUp()
	case "g", "home":
		t.JumpToTop()
	case "G", "end":
		t.JumpToBottom()
	case "l", "right":
		m.report(t.ExpandOrMoveToChild())
		m.saveState()
	case "h", "left":
		t.CollapseOrJumpToParent()
		m.saveState()
	case "enter", " ":
		m.report(t.ToggleExpand())
		m.saveState()
	case "v":
		t.ToggleMark()
	case "esc":
		t.ClearMarks()
		m.moving = nil
		t.SetMoving(nil)
	case "x":
		m.toggleChecked()
	case "r":
		m.startRename()
	case "m":
		m.moving = t.TopLevelSelection()
		t.SetMoving(m.moving)
		m.setStatus(fmt.Sprintf("moving %d item(s): [ before, p inside, ] after, esc cancel", len(m.moving)))
	case "[":
		m.dropAt(0)
	case "p":
		m.dropAt(0.5)
	case "]":
		m.dropAt(1)
	case "D":
		m.deleteSelection()
	case "y":
		m.yank()
	case ".":
		m.toggleHidden()
	case "R":
		if n := t.SelectedNode(); n != nil {
			m.report(fsnode.Refresh(n))
		}
	case "s":
		if m.opts.Save != nil {
			if err := m.opts.Save(); err != nil {
				m.report(err)
			} else {
				m.setStatus("saved")
			}
		}
	case "?":
		m.mode = modeHelp
		m.helpText = renderHelp(m.width)
	}
	return m, nil
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		n := m.renaming
		m.mode = modeNormal
		m.renaming = nil
		m.input.Blur()
		if err := n.SetText(strings.TrimSpace(m.input.Value())); err != nil {
			m.report(err)
		} else {
			m.tree.SelectNode(n)
		}
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.renaming = nil
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

// report shows err in the status line. nil clears nothing.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	debug.Log("ui: %v", err)
	m.status, m.statusErr = err.Error(), true
}

func (m *Model) toggleChecked() {
	nodes := m.tree.Selection()
	if len(nodes) == 0 {
		return
	}
	// Follow the cursor row so mixed selections converge.
	want := !m.tree.SelectedNode().IsChecked()
	var errs []error
	for _, n := range nodes {
		if n.IsCheckable() {
			errs = append(errs, n.SetChecked(want))
		}
	}
	m.report(errors.Join(errs...))
}

func (m *Model) startRename() {
	n := m.tree.SelectedNode()
	if n == nil {
		return
	}
	if !n.IsEditable() {
		m.report(fmt.Errorf("%q cannot be renamed: %w", n.Text(), tree.ErrNotSupported))
		return
	}
	m.renaming = n
	m.mode = modeRename
	m.input.SetValue(n.Text())
	m.input.CursorEnd()
	m.input.Focus()
}

// dropAt drops the picked-up nodes on the cursor row at the vertical
// fraction y of the row.
func (m *Model) dropAt(y float64) {
	if len(m.moving) == 0 {
		return
	}
	row := m.tree.SelectedNode()
	if row == nil {
		return
	}
	zone, ok := m.resolver.Resolve(row, y, m.moving)
	if !ok {
		m.report(fmt.Errorf("%q does not accept the drop: %w", row.Text(), tree.ErrNotSupported))
		return
	}
	moved := m.moving
	if err := drop.Perform(zone, moved); err != nil {
		m.report(err)
		return
	}
	m.moving = nil
	m.tree.SetMoving(nil)
	m.tree.ClearMarks()
	m.tree.SelectNode(moved[0])
	m.setStatus(fmt.Sprintf("moved %d item(s) %s", len(moved), zone))
}

func (m *Model) deleteSelection() {
	if !m.opts.AllowDelete {
		m.report(fmt.Errorf("delete: %w", tree.ErrNotSupported))
		return
	}
	var errs []error
	count := 0
	for _, n := range m.tree.TopLevelSelection() {
		p := n.Parent()
		if p == nil {
			continue
		}
		if _, err := p.Children().Remove(n); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	m.tree.ClearMarks()
	m.report(errors.Join(errs...))
	if len(errs) == 0 {
		m.setStatus(fmt.Sprintf("removed %d item(s)", count))
	}
}

func (m *Model) yank() {
	n := m.tree.SelectedNode()
	if n == nil {
		return
	}
	text := n.Path()
	if e := fsnode.Of(n); e != nil {
		text = e.Path()
	}
	write := m.opts.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(text); err != nil {
		m.report(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus("copied " + text)
}

func (m *Model) toggleHidden() {
	if fsnode.Of(m.root) == nil {
		return
	}
	cur := m.tree.SelectedNode()
	m.showHidden = !m.showHidden
	fsnode.SetShowHidden(m.root, m.showHidden)
	if cur != nil && !m.tree.SelectNode(cur) {
		m.tree.clampCursor()
	}
	if m.showHidden {
		m.setStatus("showing hidden files")
	} else {
		m.setStatus("hiding hidden files")
	}
}

// refresh reconciles changed folders that are part of the tree.
func (m *Model) refresh(dirs []string) {
	var errs []error
	for _, dir := range dirs {
		if n := fsnode.Find(m.root, dir); n != nil {
			errs = append(errs, fsnode.Refresh(n))
		}
	}
	m.report(errors.Join(errs...))
}

func (m *Model) saveState() {
	if m.opts.StatePath == "" {
		return
	}
	s := state.Capture(m.root, m.opts.ExpandDepth)
	if err := state.Save(m.opts.StatePath, s); err != nil {
		m.report(err)
	}
}

func (m Model) View() string {
	if m.mode == modeHelp {
		return m.helpText
	}

	var sb strings.Builder
	title := m.opts.Title
	if title == "" {
		title = m.root.Text()
	}
	sb.WriteString(m.theme.Header.Render(title))
	sb.WriteString("\n")
	sb.WriteString(m.tree.View())

	switch {
	case m.mode == modeRename:
		sb.WriteString("rename: " + m.input.View())
	case m.statusErr:
		sb.WriteString(m.theme.ErrorText.Render(m.status))
	case m.status != "":
		sb.WriteString(m.theme.Status.Render(m.status))
	default:
		sb.WriteString(m.theme.Status.Render(fmt.Sprintf("%d/%d  ? help", m.tree.Cursor()+1, m.tree.flat.Count())))
	}
	return sb.String()
}

const helpMarkdown = `# Keys

| Key | Action |
|---|---|
| j / k | move down / up |
| g / G | first / last row |
| l / h | expand or step in / collapse or step out |
| enter, space | toggle expansion |
| v | mark row (esc clears) |
| x | toggle check mark |
| r | rename |
| m | pick up marked rows for a move |
| [ p ] | drop before / inside / after the cursor row |
| D | remove marked rows |
| y | copy path |
| . | show or hide dot files |
| R | reload folder from disk |
| s | save |
| q | quit |
`

func renderHelp(width int) string {
	wrap := 80
	if width > 0 {
		wrap = width
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
