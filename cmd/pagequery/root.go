package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quay/pagequery/internal/log"
)

// App is the state shared by subcommands once configuration is loaded.
type app struct {
	configFile string
	cfg        *Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pagequery",
		Short: "Paged, sorted queries over SQL tables",
		Long: `pagequery turns page requests (page number, page size, and sort
instructions) into SQL and serves the results over HTTP.`,
		Version: version(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Commands that never touch the configuration must work with a
			// broken one.
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			cfg, err := loadConfig(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			h, err := log.NewHandler(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(h))
			a.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ./"+defaultConfigFile+" if present)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")
	pf.String("driver", "", "database driver (postgres|sqlite)")
	pf.String("dsn", "", "database connection string, or file path for sqlite")

	_ = root.RegisterFlagCompletionFunc("driver", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("log-format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newSQLCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}
