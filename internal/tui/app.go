package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SimonStenelid/X-team/internal/browser"
	"github.com/SimonStenelid/X-team/internal/store"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
)

// App is the interactive post-history browser: a list pane of published
// posts and a preview pane with full text and engagement.
type App struct {
	posts    []store.PostRecord
	filtered []store.PostRecord
	cursor   int
	focus    focusPane
	mode     mode

	width  int
	height int

	searchInput   textinput.Model
	searchQuery   string
	typeFilter    store.ContentType
	previewScroll int
	err           error
}

func NewApp(posts []store.PostRecord) *App {
	ti := textinput.New()
	ti.Placeholder = "Search posts..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	a := &App{
		posts:       posts,
		searchInput: ti,
	}
	a.applyFilters()
	return a
}

// Run loads recent posts and blocks inside the bubbletea event loop.
func Run(s *store.Store, limit int) error {
	posts, err := s.Posts(limit)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewApp(posts), tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if a.mode == modeSearch {
			return a.updateSearch(msg)
		}
		return a.updateNormal(msg)
	}
	return a, nil
}

func (a *App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.focus == focusPreview {
			if a.previewScroll > 0 {
				a.previewScroll--
			}
		} else if a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		}

	case "down", "j":
		if a.focus == focusPreview {
			a.previewScroll++
		} else if a.cursor < len(a.filtered)-1 {
			a.cursor++
			a.previewScroll = 0
		}

	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}

	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue(a.searchQuery)
		a.searchInput.Focus()
		return a, textinput.Blink

	case "t":
		a.typeFilter = nextTypeFilter(a.typeFilter)
		a.applyFilters()

	case "o":
		if p := a.selected(); p != nil && strings.HasPrefix(p.SourceID, "http") {
			a.err = browser.Open(p.SourceID)
		}
	}
	return a, nil
}

func (a *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, nil
	case "enter":
		a.searchQuery = a.searchInput.Value()
		a.mode = modeNormal
		a.searchInput.Blur()
		a.applyFilters()
		return a, nil
	}
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

// nextTypeFilter cycles all -> news -> curator -> meme -> image -> all.
func nextTypeFilter(cur store.ContentType) store.ContentType {
	order := store.AllTypes()
	if cur == "" {
		return order[0]
	}
	for i, t := range order {
		if t == cur {
			if i == len(order)-1 {
				return ""
			}
			return order[i+1]
		}
	}
	return ""
}

func (a *App) applyFilters() {
	a.filtered = filterPosts(a.posts, a.searchQuery, a.typeFilter)
	if a.cursor >= len(a.filtered) {
		a.cursor = len(a.filtered) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	a.previewScroll = 0
}

func filterPosts(posts []store.PostRecord, query string, typeFilter store.ContentType) []store.PostRecord {
	var out []store.PostRecord
	q := strings.ToLower(query)
	for _, p := range posts {
		if typeFilter != "" && p.Type != typeFilter {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Text), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a *App) selected() *store.PostRecord {
	if len(a.filtered) == 0 || a.cursor >= len(a.filtered) {
		return nil
	}
	return &a.filtered[a.cursor]
}

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	statusHeight := 1
	searchHeight := 0
	if a.mode == modeSearch {
		searchHeight = 1
	}
	paneHeight := a.height - statusHeight - searchHeight - 2 // borders

	listWidth := a.width * 2 / 5
	previewWidth := a.width - listWidth - 4

	listStyle := listPaneStyle
	previewStyle := previewPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	} else {
		previewStyle = previewPaneActiveStyle
	}

	list := listStyle.Width(listWidth).Height(paneHeight).
		Render(renderList(a.filtered, a.cursor, paneHeight, listWidth))
	preview := previewStyle.Width(previewWidth).Height(paneHeight).
		Render(renderPreview(a.selected(), previewWidth, paneHeight, a.previewScroll))

	panes := lipgloss.JoinHorizontal(lipgloss.Top, list, preview)

	parts := []string{panes}
	if a.mode == modeSearch {
		parts = append(parts, a.searchInput.View())
	}
	parts = append(parts, renderStatusBar(len(a.filtered), string(a.typeFilter), a.width, a.mode == modeSearch))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
