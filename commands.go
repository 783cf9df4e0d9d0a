package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/electr1fy0/bluewiki/config"
	"github.com/electr1fy0/bluewiki/editor"
	"github.com/electr1fy0/bluewiki/page"
	"github.com/electr1fy0/bluewiki/utils"
	"github.com/electr1fy0/bluewiki/wiki"
)

// connect loads the config, sets up logging and returns a client for the
// configured server. The returned func closes the debug log.
func (a *app) connect(cmd *cobra.Command) (*config.Config, *wiki.Client, func(), error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newClient(cfg)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return cfg, client, closeLog, nil
}

func (a *app) newSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "source <uri>",
		Short: "Print the source of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			src, err := client.Source(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), src)
			return nil
		},
	}
}

func (a *app) newPutCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "put <uri> [file]",
		Short: "Store page source read from a file or stdin",
		Long: `Store page source under uri. The source is read from file, or from
stdin when no file is given.

Examples:
  # Replace a page
  bluewiki put blog/post1.md post1.md

  # Create a page, failing if it already exists
  cat draft.md | bluewiki put blog/post2.md --create`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			src, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			cfg, client, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()
			vault, err := openDrafts(cfg)
			if err != nil {
				return fmt.Errorf("open drafts: %w", err)
			}

			con := newConsole(cmd, false)
			ctrl, err := con.controller(client, uri, vault)
			if err != nil {
				return err
			}
			if create {
				if err := ctrl.CreateNew(); err != nil {
					return con.failure(err)
				}
			} else {
				con.SetURIField(uri)
				con.SetVisibility(editor.Editing)
			}
			con.SetEditorContent(string(src))

			if err := ctrl.ToggleEdit(cmd.Context()); err != nil {
				return con.failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", con.navigated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "fail if the page already exists")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <uri>",
		Short: "Delete a page",
		Long: `Delete a page from the wiki. This cannot be undone.

Examples:
  # Delete a page (with confirmation)
  bluewiki delete blog/old.md

  # Delete without confirmation
  bluewiki delete blog/old.md --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			con := newConsole(cmd, yes)
			ctrl, err := con.controller(client, args[0], nil)
			if err != nil {
				return err
			}
			if err := ctrl.DeletePage(cmd.Context()); err != nil {
				return con.failure(err)
			}
			if con.navigated == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s, continue at %s\n", args[0], con.navigated)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without confirmation")
	return cmd
}

func (a *app) newNewCmd() *cobra.Command {
	var save, edit bool

	cmd := &cobra.Command{
		Use:   "new <uri>",
		Short: "Start a page from the new page template",
		Long: `Print the new page template, optionally edit it in $EDITOR, and with
--save create it on the server under uri.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]
			if err := wiki.CheckURI(uri); err != nil {
				return err
			}
			if !save && !edit {
				fmt.Fprint(cmd.OutOrStdout(), page.NewPageTemplate)
				return nil
			}

			cfg, client, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()
			vault, err := openDrafts(cfg)
			if err != nil {
				return fmt.Errorf("open drafts: %w", err)
			}

			con := newConsole(cmd, false)
			ctrl, err := con.controller(client, uri, vault)
			if err != nil {
				return err
			}
			if err := ctrl.CreateNew(); err != nil {
				return con.failure(err)
			}

			if edit {
				content, err := utils.OpenEditorWithContent(utils.ResolveEditor(cfg.Editor), con.EditorContent(), uri)
				if err != nil {
					return fmt.Errorf("editor: %w", err)
				}
				con.SetEditorContent(content)
			}
			if !save {
				fmt.Fprint(cmd.OutOrStdout(), con.EditorContent())
				return nil
			}

			if err := ctrl.ToggleEdit(cmd.Context()); err != nil {
				return con.failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", con.navigated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "create the page on the server")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "edit the template before printing or saving")
	return cmd
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return fmt.Errorf("find config directory: %w", err)
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = a.baseURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = a.timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'bluewiki' to open the wiki.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func (a *app) newDraftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts [uri]",
		Short: "List drafts kept from failed saves, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.DraftsEnabled() {
				return fmt.Errorf("drafts are disabled, set drafts.passphrase or %s", config.EnvDraftPassphrase)
			}
			vault, err := openDrafts(cfg)
			if err != nil {
				return fmt.Errorf("open drafts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				d, ok := vault.Get(args[0])
				if !ok {
					return fmt.Errorf("no draft for %s", args[0])
				}
				fmt.Fprint(out, d.Content)
				return nil
			}

			drafts := vault.List()
			if len(drafts) == 0 {
				fmt.Fprintln(out, "No drafts")
				return nil
			}
			for _, d := range drafts {
				fmt.Fprintf(out, "%s  %s\n", d.SavedAt.Format("2006-01-02 15:04"), d.URI)
			}
			return nil
		},
	}
}
