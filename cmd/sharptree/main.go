package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/sharptree/pkg/config"
	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/export"
	"github.com/vanderheijden86/sharptree/pkg/fsnode"
	"github.com/vanderheijden86/sharptree/pkg/outline"
	"github.com/vanderheijden86/sharptree/pkg/state"
	"github.com/vanderheijden86/sharptree/pkg/tree"
	"github.com/vanderheijden86/sharptree/pkg/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type flags struct {
	dir          string
	outline      string
	config       string
	showRoot     bool
	allowReorder bool
	depth        int
	exportMD     string
	exportSQLite string
	snapshot     string
	print        bool
	set          map[string]bool // flags given on the command line
}

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	var fl flags
	flag.StringVar(&fl.dir, "dir", "", "Browse a directory (default: current directory)")
	flag.StringVar(&fl.outline, "outline", "", "Open a YAML outline document (created on save if missing)")
	flag.StringVar(&fl.config, "config", "", "Read configuration from this file instead of the user config")
	flag.BoolVar(&fl.showRoot, "show-root", true, "Show the root as the first row")
	flag.BoolVar(&fl.allowReorder, "allow-reorder", true, "Allow dropping rows before and after other rows")
	flag.IntVar(&fl.depth, "depth", 1, "Levels expanded on first open")
	flag.StringVar(&fl.exportMD, "export-md", "", "Export the visible tree to a Markdown file (e.g., tree.md)")
	flag.StringVar(&fl.exportSQLite, "export-sqlite", "", "Export the visible tree to a SQLite database")
	flag.StringVar(&fl.snapshot, "snapshot", "", "Render the visible tree to an image (.svg or .png)")
	flag.BoolVar(&fl.print, "print", false, "Print the visible tree as text and exit")
	flag.Parse()

	if *help {
		fmt.Println("Usage: sharptree [options]")
		fmt.Println("\nA terminal tree browser for directories and YAML outlines.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("sharptree %s\n", version)
		os.Exit(0)
	}

	fl.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { fl.set[f.Name] = true })

	if err := run(fl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(fl flags) error {
	if fl.dir != "" && fl.outline != "" {
		return errors.New("--dir and --outline are mutually exclusive")
	}

	cfg, err := loadConfig(fl)
	if err != nil {
		return err
	}

	interactive := !fl.print && !fl.exporting() && term.IsTerminal(int(os.Stdout.Fd()))

	src, err := openSource(fl, cfg, interactive)
	if err != nil {
		return err
	}
	defer src.close()

	statePath := ""
	if cfg.State.Persist && config.StateDir() != "" {
		statePath = state.PathFor(config.StateDir(), src.id)
	}
	s := state.New()
	if statePath != "" {
		s = state.Load(statePath)
	}
	if err := s.Apply(src.root, cfg.View.ExpandDepth); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	f := tree.NewFlattener(src.root, cfg.View.ShowRoot)
	defer f.Stop()

	if fl.exporting() {
		if err := runExports(fl, src.title, export.Collect(f)); err != nil {
			return err
		}
		if !fl.print {
			return nil
		}
	}

	if !interactive {
		return export.WriteText(os.Stdout, export.Collect(f))
	}

	if debug.Enabled() {
		logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "sharptree-debug.log"), "debug")
		if err == nil {
			defer logFile.Close()
			debug.SetOutput(logFile)
		}
	}

	m := ui.NewModel(f, ui.Options{
		Title:            src.title,
		ShowLines:        cfg.View.ShowLines,
		ShowRootExpander: cfg.View.ShowRootExpander,
		AllowReorder:     cfg.View.AllowDropOrder,
		AllowDelete:      src.save != nil,
		ShowHidden:       cfg.Files.ShowHidden,
		ExpandDepth:      cfg.View.ExpandDepth,
		StatePath:        statePath,
		Save:             src.save,
		Watcher:          src.watcher,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func (fl flags) exporting() bool {
	return fl.exportMD != "" || fl.exportSQLite != "" || fl.snapshot != ""
}

// loadConfig reads the configuration and lets explicit flags override it.
func loadConfig(fl flags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if fl.config != "" {
		cfg, err = config.LoadFrom(config.ExpandHome(fl.config))
	} else {
		start := fl.dir
		if fl.outline != "" {
			start = filepath.Dir(fl.outline)
		}
		if start == "" {
			start = "."
		}
		cfg, _, err = config.Discover(start)
	}
	if err != nil {
		return cfg, err
	}

	if fl.set["show-root"] {
		cfg.View.ShowRoot = fl.showRoot
	}
	if fl.set["allow-reorder"] {
		cfg.View.AllowDropOrder = fl.allowReorder
	}
	if fl.set["depth"] {
		cfg.View.ExpandDepth = max(fl.depth, 0)
	}
	return cfg, nil
}

// source is the tree being browsed and how it is kept in sync.
type source struct {
	root    *tree.Node
	id      string // identifies the tree for persisted state
	title   string
	save    func() error // nil for read-only trees
	watcher *fsnode.Watcher
}

func (s *source) close() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			debug.Log("watcher close: %v", err)
		}
	}
}

func openSource(fl flags, cfg config.Config, interactive bool) (*source, error) {
	if fl.outline != "" {
		return openOutline(config.ExpandHome(fl.outline))
	}

	dir := fl.dir
	if dir == "" {
		dir = "."
	}
	dir = config.ExpandHome(dir)

	src := &source{}
	opts := fsnode.Options{
		ShowHidden: cfg.Files.ShowHidden,
		Ignore:     cfg.Files.Ignore,
	}
	if interactive && cfg.Files.Watch {
		w, err := fsnode.NewWatcher(fsnode.DefaultDebounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file watching disabled: %v\n", err)
		} else {
			src.watcher = w
			opts.OnLoad = func(d string) {
				if err := w.Watch(d); err != nil {
					debug.Log("watch %s: %v", d, err)
				}
			}
		}
	}

	root, err := fsnode.NewFolder(dir, opts)
	if err != nil {
		src.close()
		return nil, fmt.Errorf("opening directory: %w", err)
	}
	src.root = root
	src.id = fsnode.Of(root).Path()
	src.title = src.id
	return src, nil
}

func openOutline(path string) (*source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	doc, err := outline.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		doc, err = outline.New(abs, name), nil
	}
	if err != nil {
		return nil, err
	}
	return &source{
		root:  doc.Root(),
		id:    abs,
		title: doc.Root().Text(),
		save:  doc.Save,
	}, nil
}

// runExports writes every requested export concurrently.
func runExports(fl flags, title string, rows []export.Row) error {
	start := time.Now()
	defer func() { debug.LogTiming("exports", time.Since(start)) }()

	var g errgroup.Group
	if fl.exportMD != "" {
		g.Go(func() error {
			if err := export.SaveMarkdownToFile(rows, title, fl.exportMD); err != nil {
				return fmt.Errorf("exporting markdown: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", len(rows), fl.exportMD)
			return nil
		})
	}
	if fl.exportSQLite != "" {
		g.Go(func() error {
			if err := export.SaveSQLite(rows, title, fl.exportSQLite); err != nil {
				return fmt.Errorf("exporting sqlite: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", len(rows), fl.exportSQLite)
			return nil
		})
	}
	if fl.snapshot != "" {
		g.Go(func() error {
			err := export.SaveSnapshot(export.SnapshotOptions{Path: fl.snapshot, Title: title, Rows: rows})
			if err != nil {
				return fmt.Errorf("rendering snapshot: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Rendered snapshot to %s\n", fl.snapshot)
			return nil
		})
	}
	return g.Wait()
}
