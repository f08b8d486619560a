package users

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/encryptoo/encryptoo/cmd/cli/output"
	"github.com/encryptoo/encryptoo/internal/config"
	"github.com/encryptoo/encryptoo/internal/db"
	"github.com/encryptoo/encryptoo/internal/repo"
)

var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
			cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		list, err := repo.NewUserRepo(database).List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		rows := make([][]interface{}, 0, len(list))
		for _, u := range list {
			rows = append(rows, []interface{}{u.ID, u.Username, u.Email, u.CreatedAt.Format(time.RFC3339)})
		}
		output.RenderTable([]string{"ID", "Username", "Email", "Created"}, rows)
		return nil
	},
}

func init() {
	UsersCmd.AddCommand(listCmd)
}
