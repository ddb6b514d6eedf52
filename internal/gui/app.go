package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/rpytools/orphanclean/internal"
	"codeberg.org/rpytools/orphanclean/internal/detect"
	"codeberg.org/rpytools/orphanclean/internal/i18n"
	"codeberg.org/rpytools/orphanclean/internal/journal"
	"codeberg.org/rpytools/orphanclean/internal/lint"
	"codeberg.org/rpytools/orphanclean/internal/logging"
	"codeberg.org/rpytools/orphanclean/internal/processor"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	languageEntry *CustomEntry
	projectEntry  *CustomEntry
	lintEntry     *CustomEntry
	modeSelect    *widget.Select
	dryRunCheck   *widget.Check
	backupCheck   *widget.Check
	clearButton   *ttwidget.Button
	detectButton  *ttwidget.Button
	startButton   *ttwidget.Button
	progressBar   *widget.ProgressBar
	logViewer     *LogViewer

	// State management
	loc     *i18n.Localizer
	running bool

	// Configuration
	config    *Config
	processor *processor.Processor
	journal   *journal.Journal

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// Config holds GUI application configuration
type Config struct {
	Language       string // translation language typed into the form
	Root           string
	Mode           string
	Backup         bool
	Workers        int
	StateDir       string
	JournalPath    string
	LogLevel       string
	UILanguage     string
	SelectLanguage bool

	// SaveUILanguage persists the interface language chosen in the GUI
	SaveUILanguage func(code string) error
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	return &Config{
		Root:     ".",
		Mode:     string(processor.ModeComment),
		Backup:   true,
		LogLevel: logging.DefaultLevel,
	}
}

// New creates a new GUI application
func New(config *Config) *Application {
	if config == nil {
		config = DefaultConfig()
	} else if config.Mode == "" {
		config.Mode = DefaultConfig().Mode
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.rpytools.orphanclean")
	myApp.SetIcon(GetAppIcon())

	a := &Application{
		app:       myApp,
		config:    config,
		loc:       i18n.New(config.UILanguage),
		processor: processor.NewProcessor(config.StateDir),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.logViewer = NewLogViewer(a.loc.T("LogLabel", nil))

	// Warnings and errors of the processing code also go to the log area
	viewerLog := logging.MinLevelWriter(logging.PlainWriter(a.logViewer), zerolog.WarnLevel)
	if err := logging.Setup(config.LogLevel, viewerLog); err != nil {
		logging.Setup(logging.DefaultLevel, viewerLog)
		log.Warn().Err(err).Msg("Falling back to default log level")
	}

	if config.JournalPath != "" {
		j, err := journal.Open(config.JournalPath)
		if err != nil {
			log.Warn().Err(err).Msg("Run journal unavailable, runs will not be recorded")
		} else {
			a.journal = j
			a.processor.SetRecorder(j)
		}
	}

	a.window = myApp.NewWindow("")
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(760, 560))
	a.window.SetOnClosed(func() {
		a.cancel()
		a.wg.Wait()
		if a.journal != nil {
			a.journal.Close()
		}
	})

	a.setupUI()
	return a
}

// Run starts the GUI application
func (a *Application) Run() {
	if a.config.UILanguage == "" || a.config.SelectLanguage {
		a.showLanguageChooser()
	}
	a.window.ShowAndRun()
}

// setupUI builds the form in the current interface language. It is called
// again after the language changes and keeps what was typed.
func (a *Application) setupUI() {
	values := formValues{
		Language: a.config.Language,
		Root:     a.config.Root,
		Mode:     processor.Mode(a.config.Mode),
		Backup:   a.config.Backup,
	}
	if a.languageEntry != nil {
		values = a.formValues()
	}
	if abs, err := filepath.Abs(values.Root); err == nil && values.Root != "" {
		values.Root = abs
	}

	a.window.SetTitle(fmt.Sprintf("%s v%s", a.loc.T("Title", nil), internal.Version))

	// Language row
	a.languageEntry = NewCustomEntry()
	a.languageEntry.SetPlaceHolder("french")
	a.languageEntry.SetText(values.Language)
	a.languageEntry.SetOnEscape(a.window.Canvas().Unfocus)
	a.languageEntry.SetOnReturn(a.onStart)
	languageLabel := ttwidget.NewLabel(a.loc.T("LanguageLabel", nil))

	// Project row
	a.projectEntry = NewCustomEntry()
	a.projectEntry.SetText(values.Root)
	a.projectEntry.SetOnEscape(a.window.Canvas().Unfocus)
	projectLabel := ttwidget.NewLabel(a.loc.T("ProjectLabel", nil))
	projectBrowse := ttwidget.NewButtonWithIcon(a.loc.T("Browse", nil), theme.FolderOpenIcon(), a.onBrowseProject)

	// Lint file row
	a.lintEntry = NewCustomEntry()
	a.lintEntry.SetText(values.IDsFile)
	a.lintEntry.SetOnEscape(a.window.Canvas().Unfocus)
	a.lintEntry.SetOnReturn(a.onStart)
	lintLabel := ttwidget.NewLabel(a.loc.T("LintLabel", nil))
	lintBrowse := ttwidget.NewButtonWithIcon(a.loc.T("Browse", nil), theme.FileIcon(), a.onBrowseLint)
	a.clearButton = ttwidget.NewButtonWithIcon(a.loc.T("Clear", nil), theme.ContentClearIcon(), a.onClear)
	a.detectButton = ttwidget.NewButtonWithIcon(a.loc.T("Detect", nil), theme.SearchIcon(), a.onDetect)

	// Options row
	a.modeSelect = widget.NewSelect(modeLabels(a.loc), nil)
	a.modeSelect.SetSelected(modeLabel(a.loc, values.Mode))
	a.dryRunCheck = widget.NewCheck(a.loc.T("DryRun", nil), nil)
	a.dryRunCheck.SetChecked(values.DryRun)
	a.backupCheck = widget.NewCheck(a.loc.T("Backup", nil), nil)
	a.backupCheck.SetChecked(values.Backup)

	a.startButton = ttwidget.NewButtonWithIcon(a.loc.T("Start", nil), theme.MediaPlayIcon(), a.onStart)
	a.startButton.Importance = widget.HighImportance

	uiLanguageButton := ttwidget.NewButtonWithIcon("", theme.SettingsIcon(), a.showLanguageChooser)

	a.progressBar = widget.NewProgressBar()
	a.progressBar.Hide()

	form := container.New(layout.NewFormLayout(),
		languageLabel, a.languageEntry,
		projectLabel, container.NewBorder(nil, nil, nil, projectBrowse, a.projectEntry),
		lintLabel, container.NewBorder(nil, nil, nil, container.NewHBox(lintBrowse, a.clearButton, a.detectButton), a.lintEntry),
		widget.NewLabel(a.loc.T("ModeLabel", nil)), container.NewHBox(a.modeSelect, a.dryRunCheck, a.backupCheck),
	)

	actions := container.NewBorder(nil, nil, nil, uiLanguageButton, a.startButton)

	content := container.NewBorder(
		container.NewVBox(form, actions, a.progressBar, widget.NewSeparator()),
		nil, nil, nil,
		a.logViewer,
	)
	a.logViewer.SetTitle(a.loc.T("LogLabel", nil))

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	languageLabel.SetToolTip(a.loc.T("LanguageTooltip", nil))
	projectLabel.SetToolTip(a.loc.T("ProjectTooltip", nil))
	projectBrowse.SetToolTip(a.loc.T("ProjectTooltip", nil))
	lintLabel.SetToolTip(a.loc.T("BrowseTooltip", nil))
	lintBrowse.SetToolTip(a.loc.T("BrowseTooltip", nil))
	a.clearButton.SetToolTip(a.loc.T("ClearTooltip", nil))
	a.detectButton.SetToolTip(a.loc.T("DetectTooltip", nil))
	uiLanguageButton.SetToolTip(a.loc.T("UILanguage", nil))

	a.setupKeyboardShortcuts()
	a.setRunning(a.running)
}

func (a *Application) setupKeyboardShortcuts() {
	canvas := a.window.Canvas()

	// F5 starts processing like the Start button
	canvas.SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyF5 && !a.startButton.Disabled() {
			a.onStart()
		}
	})

	canvas.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyQ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		a.app.Quit()
	})
}

// showLanguageChooser asks for the interface language, one button per language
func (a *Application) showLanguageChooser() {
	buttons := container.NewVBox(widget.NewLabel(a.loc.T("ChooseLanguage", nil)))

	var d *dialog.CustomDialog
	for _, lang := range i18n.Languages {
		code := lang.Code
		buttons.Add(widget.NewButton(lang.Name, func() {
			d.Hide()
			a.setUILanguage(code)
		}))
	}

	d = dialog.NewCustomWithoutButtons(a.loc.T("ChooseLanguageTitle", nil), buttons, a.window)
	d.Show()
}

func (a *Application) setUILanguage(code string) {
	a.config.UILanguage = code
	a.config.SelectLanguage = false

	if a.config.SaveUILanguage != nil {
		if err := a.config.SaveUILanguage(code); err != nil {
			log.Warn().Err(err).Str("language", code).Msg("Failed to save interface language")
		}
	}

	a.loc = i18n.New(code)
	a.setupUI()
}

// formValues reads the current form inputs
func (a *Application) formValues() formValues {
	return formValues{
		Language: strings.TrimSpace(a.languageEntry.Text),
		Root:     strings.TrimSpace(a.projectEntry.Text),
		IDsFile:  strings.TrimSpace(a.lintEntry.Text),
		Mode:     modeFromLabel(a.loc, a.modeSelect.Selected),
		DryRun:   a.dryRunCheck.Checked,
		Backup:   a.backupCheck.Checked,
	}
}

func (a *Application) onBrowseProject() {
	folderDialog := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if dir == nil {
			return
		}
		a.projectEntry.SetText(dir.Path())
	}, a.window)

	if root := strings.TrimSpace(a.projectEntry.Text); root != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(root)); err == nil {
			folderDialog.SetLocation(lister)
		}
	}

	folderDialog.Show()
}

func (a *Application) onBrowseLint() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		a.lintEntry.SetText(reader.URI().Path())
	}, a.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".txt"}))
	if root := strings.TrimSpace(a.projectEntry.Text); root != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(root)); err == nil {
			fileDialog.SetLocation(lister)
		}
	}

	fileDialog.Show()
}

// onClear reduces the selected lint report to its ids and selects the result
func (a *Application) onClear() {
	lintPath := strings.TrimSpace(a.lintEntry.Text)
	if lintPath == "" {
		a.showError(errors.New(a.loc.T("ErrMissingLint", nil)))
		return
	}

	if !a.begin() {
		return
	}

	loc := a.loc
	a.background(func() {
		path, count, err := lint.CleanFile(lintPath, cleanedLintPath(lintPath, loc))
		if err != nil {
			a.finish(func() { a.showError(err) })
			return
		}

		a.logViewer.AddMessage(loc.T("LintCleaned", map[string]any{"Count": count, "File": path}))
		a.finish(func() { a.lintEntry.SetText(path) })
	})
}

// onDetect writes the ids of the orphaned blocks to an id file in the project
// and selects it
func (a *Application) onDetect() {
	values := a.formValues()
	if key := values.validate(false); key != "" {
		a.showError(errors.New(a.loc.T(key, nil)))
		return
	}

	if !a.begin() {
		return
	}

	loc := a.loc
	a.background(func() {
		orphans, err := a.processor.Detect(a.ctx, values.Root, values.Language)
		if err != nil {
			a.finish(func() { a.showError(err) })
			return
		}

		a.logViewer.AddMessage(loc.T("OrphansFound", map[string]any{"Count": len(orphans)}))
		if len(orphans) == 0 {
			a.finish(nil)
			return
		}

		root, _ := filepath.Abs(values.Root)
		for _, o := range orphans {
			rel, _ := filepath.Rel(root, o.File)
			a.logViewer.Log("%s:%d %s", filepath.ToSlash(rel), o.Line, o.ID)
		}

		keys := detect.Keys(orphans)
		path := filepath.Join(root, loc.IDFileName())
		if err := lint.WriteIDs(path, keys); err != nil {
			a.finish(func() { a.showError(err) })
			return
		}

		a.logViewer.AddMessage(loc.T("LintCleaned", map[string]any{"Count": len(keys), "File": path}))
		a.finish(func() { a.lintEntry.SetText(path) })
	})
}

// onStart processes the ids of the selected file
func (a *Application) onStart() {
	values := a.formValues()
	if key := values.validate(true); key != "" {
		a.showError(errors.New(a.loc.T(key, nil)))
		return
	}

	if !a.begin() {
		return
	}

	loc := a.loc
	a.progressBar.SetValue(0)
	a.progressBar.Show()

	a.background(func() {
		a.logViewer.AddMessage(loc.T("ReadingIDs", nil))
		ids, err := lint.ReadIDs(values.IDsFile)
		if err != nil {
			msg := loc.T("ErrReadCleanedLint", map[string]any{"Error": err})
			a.logViewer.AddMessage(msg)
			a.finish(func() { a.showError(errors.New(msg)) })
			return
		}

		opts := values.options(ids, a.config.Workers)
		root, _ := filepath.Abs(opts.Root)

		a.logViewer.AddMessage(loc.T("Started", map[string]any{"Language": opts.Language}))
		a.processor.SetProgress(func(done, total int, res processor.FileResult) {
			if line := fileLine(loc, root, res); line != "" {
				a.logViewer.AddMessage(line)
			}
			fyne.Do(func() {
				a.progressBar.SetValue(float64(done) / float64(total))
			})
		})

		summary, err := a.processor.Process(a.ctx, opts)
		if err != nil {
			a.logViewer.AddMessage(err.Error())
			a.finish(func() { a.showError(err) })
			return
		}

		lines := summaryLines(loc, summary)
		for _, line := range lines {
			a.logViewer.AddMessage(line)
		}

		a.finish(func() {
			dialog.ShowInformation(loc.T("Title", nil), strings.Join(lines, "\n"), a.window)
		})
	})
}

// begin marks the start of a background task, false when one is running
func (a *Application) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return false
	}
	a.running = true
	a.setRunning(true)
	return true
}

// background runs fn off the UI thread
func (a *Application) background(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// finish ends a background task and runs then on the UI thread
func (a *Application) finish(then func()) {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	fyne.Do(func() {
		a.setRunning(false)
		a.progressBar.Hide()
		if then != nil {
			then()
		}
	})
}

// setRunning disables the actions while a task runs
func (a *Application) setRunning(running bool) {
	for _, b := range []*ttwidget.Button{a.clearButton, a.detectButton, a.startButton} {
		if running {
			b.Disable()
		} else {
			b.Enable()
		}
	}
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
}
