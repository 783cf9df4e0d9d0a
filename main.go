package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/electr1fy0/bluewiki/config"
	"github.com/electr1fy0/bluewiki/editor"
	"github.com/electr1fy0/bluewiki/model"
	"github.com/electr1fy0/bluewiki/storage"
	"github.com/electr1fy0/bluewiki/utils"
	"github.com/electr1fy0/bluewiki/wiki"
)

// version is set during build with -ldflags
var version = "dev"

const (
	defaultDebugLog = "bluewiki-debug.log"
	defaultPage     = "index.html"
)

// app holds the persistent flags shared by every command.
type app struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	inPlace    bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bluewiki [uri]",
		Short: "Terminal editor for a JBake wiki",
		Long: `bluewiki browses and edits the pages of a JBake wiki server.

Without a subcommand it opens the page (index.html by default) in the
interactive editor.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runTUI,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bluewiki/config.yaml)")
	pf.StringVar(&a.baseURL, "base-url", "", "wiki server context path, e.g. http://localhost:8820/")
	pf.DurationVar(&a.timeout, "timeout", 0, "request timeout, 0 for none")
	pf.BoolVar(&a.inPlace, "in-place", false, "refresh the viewer in place after saving an unchanged identifier")
	pf.BoolVar(&a.debug, "debug", false, "write log output to "+defaultDebugLog)

	root.AddCommand(
		a.newSourceCmd(),
		a.newPutCmd(),
		a.newDeleteCmd(),
		a.newNewCmd(),
		a.newDraftsCmd(),
		a.newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies flags given on the command line.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := a.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if a.inPlace {
		cfg.SaveMode = "in_place"
	}
	if a.debug && cfg.DebugLog == "" {
		cfg.DebugLog = defaultDebugLog
	}
	return cfg, cfg.Validate()
}

// setupLogging sends log output to the debug file, or drops it.
func setupLogging(cfg *config.Config) (func(), error) {
	if cfg.DebugLog == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.DebugLog, "bluewiki")
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return func() { f.Close() }, nil
}

func newClient(cfg *config.Config) (*wiki.Client, error) {
	return wiki.New(cfg.BaseURL, wiki.WithTimeout(cfg.Timeout))
}

func openDrafts(cfg *config.Config) (*storage.Vault, error) {
	if !cfg.DraftsEnabled() {
		return nil, nil
	}
	path := cfg.Drafts.Path
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(path, cfg.Drafts.Passphrase)
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	mode, err := editor.ParseSaveMode(cfg.SaveMode)
	if err != nil {
		return err
	}
	vault, err := openDrafts(cfg)
	if err != nil {
		return fmt.Errorf("open drafts: %w", err)
	}

	uri := defaultPage
	if len(args) == 1 {
		uri = args[0]
	}
	if err := wiki.CheckURI(uri); err != nil {
		return err
	}

	m, err := model.NewModel(model.Options{
		Client:   client,
		URI:      uri,
		SaveMode: mode,
		Drafts:   vault,
		Editor:   utils.ResolveEditor(cfg.Editor),
	})
	if err != nil {
		return err
	}
	log.Printf("opening %s on %s", uri, cfg.BaseURL)
	return model.Run(m)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bluewiki",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bluewiki version %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
