package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProjectListView ViewState = iota
	ProjectDetailView
	ConfirmView
	DownloadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx             context.Context
	view            ViewState
	session         *platform.Session
	engine          *tasks.SyncEngine
	opts            tasks.DownloadOpts
	width           int
	height          int
	projectList     list.Model
	projects        *platform.ProjectCollection
	mediaList       list.Model
	selectedProject *platform.Project
	progressChan    chan tasks.ProgressUpdate
	progress        tasks.ProgressUpdate
	result          *tasks.DownloadResult
	err             error
	help            help.Model
	keys            keyMap
}

type projectsFetchedMsg struct {
	projects *platform.ProjectCollection
	err      error
}

type projectFetchedMsg struct {
	project *platform.Project
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type downloadCompleteMsg struct {
	result *tasks.DownloadResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, session *platform.Session, engine *tasks.SyncEngine, opts tasks.DownloadOpts) *Model {
	return &Model{
		ctx:     ctx,
		view:    ProjectListView,
		session: session,
		engine:  engine,
		opts:    opts,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the project listing.
func (m *Model) Init() tea.Cmd {
	return m.fetchProjects()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.projectList.Width() == 0 {
			m.projectList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.mediaList.Width() == 0 {
			m.mediaList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ProjectListView:
			return m.handleProjectListKeys(msg)
		case ProjectDetailView:
			return m.handleProjectDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case projectsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.projects = msg.projects
		all := msg.projects.All()
		items := make([]list.Item, len(all))
		for i, p := range all {
			items[i] = projectItem{project: p}
		}
		m.projectList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.projectList.Title = "MilCubes Projects"
		m.projectList.SetSize(m.width-4, m.height-8)
		return m, nil

	case projectFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ProjectListView
			return m, nil
		}
		m.selectedProject = msg.project
		m.mediaList = list.New(mediaItems(msg.project), list.NewDefaultDelegate(), 0, 0)
		m.mediaList.Title = fmt.Sprintf("Media in '%s'", msg.project.Title)
		m.mediaList.SetSize(m.width-4, m.height-8)
		m.view = ProjectDetailView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case downloadCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ProjectListView:
		return m.renderProjectList()
	case ProjectDetailView:
		return m.renderProjectDetail()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleProjectListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.projectList.SelectedItem()
		if selected != nil {
			if pi, ok := selected.(projectItem); ok {
				return m, m.fetchProject(pi.project.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

func (m *Model) handleProjectDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ProjectListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.mediaList, cmd = m.mediaList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = ProjectDetailView
		return m, nil
	case "y":
		m.view = DownloadView
		return m, m.startDownload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = ProjectListView
		m.selectedProject = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProjectListView:
		m.projectList, cmd = m.projectList.Update(msg)
	case ProjectDetailView:
		m.mediaList, cmd = m.mediaList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.session.Projects(m.ctx, 0, 0)
		return projectsFetchedMsg{projects: projects, err: err}
	}
}

func (m *Model) fetchProject(id int64) tea.Cmd {
	return func() tea.Msg {
		project, err := m.session.Project(m.ctx, id)
		return projectFetchedMsg{project: project, err: err}
	}
}

func (m *Model) startDownload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.DownloadContent(m.ctx, m.progressChan, m.selectedProject, m.opts)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return downloadCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return downloadCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderProjectList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.projectList.View(), helpView)
}

func (m *Model) renderProjectDetail() string {
	downloadKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "download"),
	)
	helpKeys := []key.Binding{downloadKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.mediaList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	media := m.selectedProject.MediaURLs()
	total := 0
	for _, urls := range media {
		total += len(urls)
	}

	title := styles.title.Render(fmt.Sprintf("Download '%s'?", m.selectedProject.Title))
	info := fmt.Sprintf("\nProject: %d\nMedia files: %d\nOutput: %s\n", m.selectedProject.ID, total, m.opts.OutputDir)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading Project")

	var phase string
	switch m.progress.Phase {
	case tasks.WriteContent:
		phase = "Writing content..."
	case tasks.FetchAssets:
		phase = fmt.Sprintf("Downloading media (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Download failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Download Complete!")
	info := fmt.Sprintf(
		"\nContent: %s\nMedia: %d saved, %d failed",
		m.result.ContentPath,
		m.result.SuccessfulAssets,
		m.result.FailedAssets,
	)

	var failed string
	if m.result.FailedAssets > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to download %d assets:", m.result.FailedAssets)))
		for _, asset := range m.result.Assets {
			if asset.Err != nil {
				failed += fmt.Sprintf("\n  • %s (%s)", asset.URL, asset.Kind)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
