package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/encryptoo/encryptoo/internal/config"
	"github.com/encryptoo/encryptoo/internal/db"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := db.Migrate(cfg.DatabaseURL()); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}
