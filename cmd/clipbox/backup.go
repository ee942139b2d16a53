package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a consistent copy of the database",
	Long: `Copy the library database to backup_dir as videos_YYYYMMDD_HHMMSS.db.
The copy is taken inside SQLite and is safe while the library is in use.`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().String("dir", "", "Backup directory (overrides backup_dir)")
}

func runBackup(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	dir := lib.cfg.BackupDir
	if arg, _ := cmd.Flags().GetString("dir"); arg != "" {
		if dir, err = config.ExpandPath(arg); err != nil {
			return err
		}
	}

	path, size, err := lib.store.Backup(cmd.Context(), dir, time.Now())
	if err != nil {
		return err
	}
	util.SuccessLog("Backup written: %s (%s)", path, humanize.Bytes(uint64(size)))
	return nil
}
