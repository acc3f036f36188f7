package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy every table into the backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := e.store.List()
			if err != nil {
				return err
			}
			svc, closeBackup, err := e.openBackup()
			if err != nil {
				return err
			}
			defer closeBackup()

			snaps, err := svc.Run(cmd.Context(), tables)
			if err != nil {
				return err
			}
			if e.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), snaps)
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", s.Table, s.BackupPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d tables\n", len(snaps))
			return nil
		},
	}
}

func newBackupsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List recorded snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeBackup, err := e.openBackup()
			if err != nil {
				return err
			}
			defer closeBackup()

			snaps, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if e.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), snaps)
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %8d  %s  %s\n",
					s.CreatedAt.Local().Format(time.DateTime), s.Table, s.SizeBytes, s.SHA256[:12], s.BackupPath)
			}
			return nil
		},
	}
}
