package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/milestonehq/milestone/internal/app"
	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run wizard: write a config file and register drives and roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newSetupModel()
			if err != nil {
				return err
			}
			p := tea.NewProgram(m, tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(setupModel); ok && fm.err != nil {
				return fm.err
			}
			return nil
		},
	}
}

type setupStep int

const (
	stepWriteMode setupStep = iota
	stepDrive
	stepRoot
	stepSaving
	stepDone
)

var (
	setupTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	setupHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// pendingDrive tracks a drive path entered this session, plus the root
// paths collected for it, until finish() registers all of it with the
// catalog in one pass.
type pendingDrive struct {
	path  string
	roots []string
}

type setupModel struct {
	step setupStep
	cfg  *config.Config

	writeMode bool

	pathInput textinput.Model
	drives    []pendingDrive

	driveIdx   int
	rootInput  textinput.Model
	rootsAdded int

	done bool
	err  error
}

func newSetupModel() (setupModel, error) {
	cfg := config.DefaultConfig()

	pi := textinput.New()
	pi.Placeholder = "/mnt/drive1 (leave empty to continue)"
	pi.Width = 50
	pi.Focus()

	ri := textinput.New()
	ri.Placeholder = "/mnt/drive1/Movies (leave empty to move to the next drive)"
	ri.Width = 50

	return setupModel{
		step:      stepWriteMode,
		cfg:       cfg,
		pathInput: pi,
		rootInput: ri,
	}, nil
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey && keyMsg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.step {
	case stepWriteMode:
		if isKey {
			switch keyMsg.String() {
			case "y", "Y":
				m.writeMode = true
				m.step = stepDrive
			case "n", "N", "enter":
				m.step = stepDrive
			}
		}
		return m, nil

	case stepDrive:
		if isKey && keyMsg.Type == tea.KeyEnter {
			path := m.pathInput.Value()
			if path == "" {
				if len(m.drives) == 0 {
					return m, nil
				}
				m.step = stepRoot
				m.rootInput.Focus()
				return m, textinput.Blink
			}
			m.drives = append(m.drives, pendingDrive{path: path})
			m.pathInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd

	case stepRoot:
		if isKey && keyMsg.Type == tea.KeyEnter {
			path := m.rootInput.Value()
			if path == "" {
				m.driveIdx++
				if m.driveIdx >= len(m.drives) {
					m.step = stepSaving
					return m, finishSetup(m.cfg, m.writeMode, m.drives)
				}
				return m, nil
			}
			m.drives[m.driveIdx].roots = append(m.drives[m.driveIdx].roots, path)
			m.rootsAdded++
			m.rootInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.rootInput, cmd = m.rootInput.Update(msg)
		return m, cmd

	case stepDone:
		if isKey {
			return m, tea.Quit
		}
	}

	if fm, ok := msg.(setupFinishedMsg); ok {
		m.step = stepDone
		m.done = fm.err == nil
		m.err = fm.err
		return m, nil
	}

	return m, nil
}

// setupFinishedMsg reports the outcome of finishSetup back into the model;
// the bubbletea loop only observes state changes made through Update's
// return value, so persistence results must travel as a message rather
// than a mutation captured by the command closure.
type setupFinishedMsg struct{ err error }

// finishSetup persists the config and registers every drive and root
// collected during the wizard, once the last drive's roots are confirmed.
func finishSetup(cfg *config.Config, writeMode bool, drives []pendingDrive) tea.Cmd {
	return func() tea.Msg {
		cfg.WriteMode = writeMode
		if err := cfg.Save(); err != nil {
			return setupFinishedMsg{err: fmt.Errorf("save config: %w", err)}
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return setupFinishedMsg{err: fmt.Errorf("create logger: %w", err)}
		}
		a, err := app.New(cfg, logger)
		if err != nil {
			return setupFinishedMsg{err: fmt.Errorf("initialize: %w", err)}
		}
		defer a.Close()

		ctx := context.Background()
		for _, d := range drives {
			drive, err := a.Catalog.RegisterDrive(ctx, d.path, nil, nil)
			if err != nil {
				return setupFinishedMsg{err: fmt.Errorf("register drive %s: %w", d.path, err)}
			}
			for _, rootPath := range d.roots {
				if _, err := a.Catalog.AddRoot(ctx, drive.ID, rootPath); err != nil {
					return setupFinishedMsg{err: fmt.Errorf("add root %s: %w", rootPath, err)}
				}
			}
		}
		return setupFinishedMsg{}
	}
}

func (m setupModel) View() string {
	switch m.step {
	case stepWriteMode:
		return setupTitleStyle.Render("milestone setup") + "\n\n" +
			"Enable write_mode now? Write mode allows copies, quarantine, and restore.\n" +
			"It can always be turned on later with 'milestone config' edits.\n\n" +
			setupHintStyle.Render("[y] yes   [n/enter] no, stay read-only") + "\n"

	case stepDrive:
		return setupTitleStyle.Render("Register drives") + "\n\n" +
			fmt.Sprintf("Mount path for drive %d:\n", len(m.drives)+1) +
			m.pathInput.View() + "\n\n" +
			setupHintStyle.Render(fmt.Sprintf("%d drive(s) added. Press enter on an empty path to continue.", len(m.drives)))

	case stepRoot:
		drive := m.drives[m.driveIdx]
		return setupTitleStyle.Render("Register roots") + "\n\n" +
			fmt.Sprintf("Root path under %s:\n", drive.path) +
			m.rootInput.View() + "\n\n" +
			setupHintStyle.Render("Press enter on an empty path to move to the next drive.")

	case stepSaving:
		return setupTitleStyle.Render("Saving...") + "\n\n" + "Writing config and registering drives and roots.\n"

	case stepDone:
		if m.err != nil {
			return fmt.Sprintf("setup failed: %v\n", m.err)
		}
		return setupTitleStyle.Render("Setup complete") + "\n\n" +
			fmt.Sprintf("Registered %d drive(s) and %d root(s). write_mode=%v\n\n", len(m.drives), m.rootsAdded, m.writeMode) +
			setupHintStyle.Render("Run 'milestone scan start' to build the catalog, or 'milestone serve' to run the API. Press any key to exit.")
	}
	return ""
}
