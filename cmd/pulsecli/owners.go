package main

import (
	"log"

	"github.com/spf13/cobra"
)

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Manage subject owners and their upstream credentials",
}

var ownerEmail string

func init() {
	upsertOwnerCmd.Flags().StringVar(&ownerEmail, "email", "", "email address for out-of-band notifications")
	ownersCmd.AddCommand(upsertOwnerCmd)
	ownersCmd.AddCommand(setTokenCmd)
	ownersCmd.AddCommand(deleteOwnerCmd)
}

var upsertOwnerCmd = &cobra.Command{
	Use:   "set <owner-id>",
	Short: "Create or update an owner record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		owner, err := backends.Owners.Upsert(args[0], ownerEmail)
		if err != nil {
			return err
		}
		log.Printf("stored owner %s", owner.ID)
		return nil
	},
}

var setTokenCmd = &cobra.Command{
	Use:   "set-token <owner-id> <token>",
	Short: "Store an owner's upstream access token (encrypted at rest)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := backends.Owners.SetToken(args[0], args[1]); err != nil {
			return err
		}
		log.Printf("stored token for owner %s", args[0])
		return nil
	},
}

var deleteOwnerCmd = &cobra.Command{
	Use:   "delete <owner-id>",
	Short: "Delete an owner record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return backends.Owners.Delete(args[0])
	},
}
