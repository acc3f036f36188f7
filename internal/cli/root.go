// Package cli implements the tabler command-line interface. Without a
// subcommand it runs the interactive menu session; the subcommands expose the
// same table and backup operations for scripting.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabler/internal/backup"
	"github.com/mesh-intelligence/tabler/internal/flatfile"
	"github.com/mesh-intelligence/tabler/internal/menu"
	"github.com/mesh-intelligence/tabler/internal/paths"
	"github.com/mesh-intelligence/tabler/internal/seed"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// env is the state shared by subcommands once configuration is loaded.
type env struct {
	flags   rootFlags
	cfg     types.Config
	dataDir string
	logger  *slog.Logger
	store   *flatfile.Store
}

// setup loads configuration and opens the table store.
func (e *env) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	e.cfg, e.dataDir, err = buildConfig(v, e.flags.dataDir)
	if err != nil {
		return err
	}

	e.logger = newLogger(cmd.ErrOrStderr(), e.cfg.LogLevel)
	e.store, err = flatfile.NewStore(e.cfg.TablesDir, e.logger)
	if err != nil {
		return err
	}
	e.logger.Debug("configuration loaded", "config_dir", configDir, "tables_dir", e.cfg.TablesDir, "backup_dir", e.cfg.BackupDir)
	return nil
}

// openBackup returns a backup service with its catalog. The caller must call
// the returned close function.
func (e *env) openBackup() (*backup.Service, func(), error) {
	if err := os.MkdirAll(e.cfg.BackupDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating backup directory: %w", err)
	}
	catalog, err := backup.OpenCatalog(filepath.Join(e.cfg.BackupDir, backup.CatalogFileName))
	if err != nil {
		return nil, nil, err
	}
	svc := backup.NewService(e.store, e.cfg.BackupDir, catalog, e.logger)
	return svc, func() { catalog.Close() }, nil
}

// NewRootCmd creates the top-level "tabler" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "tabler",
		Short: "A flat-file table manager",
		Long: "Tabler manages named tables stored as flat text files with one\n" +
			"comma-separated record per line. Run without a command for the\n" +
			"interactive menu.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "init", "help":
				return nil
			}
			return e.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, e)
		},
	}

	root.PersistentFlags().StringVar(&e.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/tabler)")
	root.PersistentFlags().StringVar(&e.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.tabler)")
	root.PersistentFlags().BoolVar(&e.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(e))
	root.AddCommand(newCreateCmd(e))
	root.AddCommand(newDropCmd(e))
	root.AddCommand(newAddCmd(e))
	root.AddCommand(newEditCmd(e))
	root.AddCommand(newRmCmd(e))
	root.AddCommand(newPrintCmd(e))
	root.AddCommand(newShowCmd(e))
	root.AddCommand(newListCmd(e))
	root.AddCommand(newGenerateCmd(e))
	root.AddCommand(newCleanCmd(e))
	root.AddCommand(newBackupCmd(e))
	root.AddCommand(newBackupsCmd(e))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "tabler:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error onto the exit code: user mistakes and usage errors
// are 1, filesystem and catalog failures are 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrTableNotFound),
		errors.Is(err, types.ErrOutOfRange),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidRecord),
		errors.Is(err, types.ErrInvalidMode):
		return exitUserError
	case errors.Is(err, backup.ErrCatalog):
		return exitSysError
	}
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var sysErr *os.SyscallError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &sysErr) {
		return exitSysError
	}
	return exitUserError
}

// runSession starts the interactive menu on the command's input and output.
func runSession(cmd *cobra.Command, e *env) error {
	svc, closeBackup, err := e.openBackup()
	if err != nil {
		return err
	}
	defer closeBackup()

	rows, err := seed.RowCount(e.cfg.NamesFile, e.cfg.TestRows)
	if err != nil {
		return err
	}

	m := menu.New(menu.Options{
		Store:       e.store,
		Backup:      svc,
		BackupDir:   e.cfg.BackupDir,
		Generator:   seed.NewRandGenerator(),
		TestRows:    rows,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Logger:      e.logger,
		ClearScreen: isTerminal(cmd.OutOrStdout()),
	})
	return m.Run(cmd.Context())
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
