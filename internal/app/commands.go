package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mailcanvas/internal/config"
	"mailcanvas/internal/logging"
)

// cli carries the state shared by every command.
type cli struct {
	version    string
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the mailcanvas command tree.
func NewRootCommand(version string) *cobra.Command {
	c := &cli{version: version}

	root := &cobra.Command{
		Use:   "mailcanvas",
		Short: "Email template canvas editor",
		Long: `mailcanvas builds email templates from rows of columns and free-form
wrappers. Agents edit templates through the MCP server (mailcanvas mcp);
the other commands manage stored templates directly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultConfigPath(), "config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.mcpCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.listCmd(),
		c.deleteCmd(),
		c.checkpointsCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	log, level, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	if c.verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	c.cfg, c.log = cfg, log
	return nil
}

// withApp opens the app for one command and closes it afterwards.
func (c *cli) withApp(ctx context.Context, fn func(*App) error) (err error) {
	a, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the editor to agents over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				return a.ServeMCP(cmd.Context(), c.version, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import template JSON files",
		Long: `Each file holds {"name": ..., "content": [...]}. A file with an "id"
overwrites that template; otherwise a new template is created.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" && len(args) > 1 {
				return fmt.Errorf("--id needs exactly one file")
			}
			return c.withApp(cmd.Context(), func(a *App) error {
				for _, path := range args {
					res, err := a.Templates.ImportFileAs(cmd.Context(), path, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.ID, path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "template id for files that carry none")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <template-id>",
		Short: "Write a template as importable JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				doc, err := a.Templates.Export(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return fmt.Errorf("encode template: %w", err)
				}
				if out == "" || out == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored templates, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				list, err := a.Templates.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
				for _, t := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.UpdatedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template and its checkpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				return a.Templates.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func (c *cli) checkpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoints <template-id>",
		Short: "List saved checkpoints of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				cps, err := a.Templates.Checkpoints(args[0])
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLABEL\tCREATED")
				for _, cp := range cps {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", cp.ID, cp.Label, cp.CreatedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Import template files dropped into the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *App) error {
				return a.Watch(cmd.Context())
			})
		},
	}
}
