package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stubwire/stubwire/pkg/config"
	"github.com/stubwire/stubwire/pkg/contract"
	"github.com/stubwire/stubwire/pkg/engine"
	"github.com/stubwire/stubwire/pkg/logging"
)

var (
	serveFile      string
	serveDir       string
	servePort      int
	serveAdminPort int
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stub server",
	Long: `Start the stub server with contracts from a file or directory.

Settings default from STUBWIRE_* environment variables; flags take
precedence. Directory loading merges files in sorted path order, which is
also the matching precedence across files.`,
	Example: `  # Serve contracts from a single file
  stubwire serve -f contracts.yaml

  # Serve a contract directory on a custom port
  stubwire serve --dir ./contracts --port 8080`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVarP(&serveFile, "file", "f", "", "contract file (YAML or JSON)")
	flags.StringVar(&serveDir, "dir", "", "contract directory (loaded in sorted order)")
	flags.IntVarP(&servePort, "port", "p", 0, "stub server port (default 4280)")
	flags.IntVar(&serveAdminPort, "admin-port", 0, "admin API port (default 4290)")
	flags.StringVar(&serveLogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&serveLogFormat, "log-format", "", "log format: text or json")

	// The root command serves by default, so it shares serve's flags.
	rootCmd.Flags().AddFlagSet(flags)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveAdminPort != 0 {
		cfg.AdminPort = serveAdminPort
	}
	if serveLogLevel != "" {
		cfg.LogLevel = serveLogLevel
	}
	if serveLogFormat != "" {
		cfg.LogFormat = serveLogFormat
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
	})

	contracts, err := loadContracts(serveFile, serveDir)
	if err != nil {
		return err
	}
	if len(contracts) == 0 {
		return fmt.Errorf("no contracts loaded: pass --file or --dir")
	}

	srv, err := engine.NewServer(cfg, contracts, engine.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// loadContracts merges contracts from a file and/or directory, file first.
func loadContracts(file, dir string) ([]*contract.Contract, error) {
	var contracts []*contract.Contract

	if file != "" {
		fromFile, err := config.LoadContractsFromFile(file)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, fromFile...)
	}

	if dir != "" {
		result, err := config.NewDirectoryLoader(dir).Load()
		if err != nil {
			return nil, err
		}
		for _, loadErr := range result.Errors {
			return nil, fmt.Errorf("loading %s: %w", loadErr.Path, loadErr.Err)
		}
		contracts = append(contracts, result.Contracts...)
	}

	return contracts, nil
}
