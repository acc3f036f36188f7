package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabler/internal/paths"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tabler configuration and directories",
		Long:  "Write a default config.yaml if none exists, then create the tables and backup directories.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(e.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}

			// Read first so an existing data_dir is kept.
			v, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			cfg, dataDir, err := buildConfig(v, e.flags.dataDir)
			if err != nil {
				return err
			}

			configPath := filepath.Join(configDir, configFileExt)
			written, err := writeConfigIfMissing(configPath, dataDir)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			for _, dir := range []string{cfg.TablesDir, cfg.BackupDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create directory: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", configPath)
			}
			fmt.Fprintf(out, "Tables: %s\nBackups: %s\n", cfg.TablesDir, cfg.BackupDir)
			return nil
		},
	}
}
