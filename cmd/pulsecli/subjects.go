package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/devspacehq/pulse/storage/model"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Manage watched subjects",
}

var subjectKind string
var subjectDisplayName string

func init() {
	addSubjectCmd.Flags().StringVar(&subjectKind, "kind", "project", "subject kind (project or user)")
	addSubjectCmd.Flags().StringVar(&subjectDisplayName, "name", "", "display name used in notifications")
	subjectsCmd.AddCommand(listSubjectsCmd)
	subjectsCmd.AddCommand(addSubjectCmd)
	subjectsCmd.AddCommand(enableSubjectCmd)
	subjectsCmd.AddCommand(disableSubjectCmd)
}

var listSubjectsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all subjects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		subjects, err := backends.Subjects.List()
		if err != nil {
			return err
		}
		for _, s := range subjects {
			fmt.Printf("%d\t%s\t%s\t%s\twatch=%t\n", s.ID, s.Kind, s.RepoFullName, s.DisplayName, s.WatchEnabled)
		}
		return nil
	},
}

var addSubjectCmd = &cobra.Command{
	Use:   "add <owner-id> <repo-full-name>",
	Short: "Link a repository as a watched subject",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		kind, err := model.ParseSubjectKind(subjectKind)
		if err != nil {
			return err
		}
		displayName := subjectDisplayName
		if displayName == "" {
			displayName = args[1]
		}
		subject := model.Subject{
			OwnerID:      args[0],
			Kind:         kind,
			DisplayName:  displayName,
			RepoFullName: args[1],
			WatchEnabled: true,
		}
		if err = backends.Subjects.Write(&subject); err != nil {
			return err
		}
		log.Printf("created subject %d", subject.ID)
		return nil
	},
}

func setWatchCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			return backends.Subjects.SetWatch(uint(id), enabled)
		},
	}
}

var enableSubjectCmd = setWatchCmd("enable <subject-id>", "Enable watching a subject", true)
var disableSubjectCmd = setWatchCmd("disable <subject-id>", "Disable watching a subject", false)
