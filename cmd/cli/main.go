package main

import (
	"fmt"
	"os"

	"github.com/encryptoo/encryptoo/cmd/cli/feedback"
	"github.com/encryptoo/encryptoo/cmd/cli/migrate"
	"github.com/encryptoo/encryptoo/cmd/cli/root"
	"github.com/encryptoo/encryptoo/cmd/cli/users"
)

func main() {
	root.RootCmd.AddCommand(users.UsersCmd)
	root.RootCmd.AddCommand(feedback.FeedbackCmd)
	root.RootCmd.AddCommand(migrate.MigrateCmd)

	if err := root.RootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
