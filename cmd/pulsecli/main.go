package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/devspacehq/pulse/cmd/pulse/config"
	"github.com/devspacehq/pulse/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "pulsecli",
	Short: "pulsecli can help you manage your pulse watcher",
	Long:  "pulsecli can help you manage your pulse watcher",
}

var configFile string
var backends model.Backends

func loadConfig() error {
	config.Load(configFile)
	log.Println("Loaded Config")
	c := config.Get()

	var err error
	backends, err = config.LoadStorageBackends(c.Storage, c.API.Management.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(ownersCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
