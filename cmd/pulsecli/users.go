package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage management API users",
}

var userDisplayName string

func init() {
	addUserCmd.Flags().StringVar(&userDisplayName, "name", "", "display name of the user")
	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(addUserCmd)
	usersCmd.AddCommand(deleteUserCmd)
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List all management users",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		users, err := backends.Users.List()
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\tdisabled=%t\n", u.Username, u.DisplayName, u.Disabled)
		}
		return nil
	},
}

var addUserCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Create a management user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		u, err := backends.Users.Create(args[0], args[1], userDisplayName)
		if err != nil {
			return err
		}
		log.Printf("created user %s", u.Username)
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a management user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return backends.Users.Delete(args[0])
	},
}
