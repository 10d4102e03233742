package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/devspacehq/pulse"
	"github.com/devspacehq/pulse/cmd/pulse/config"
)

var runServerURL string
var runSecret string

func init() {
	runCmd.Flags().StringVar(&runServerURL, "server", "http://localhost:8080", "base url of the pulse server")
	runCmd.Flags().StringVar(&runSecret, "secret", "", "the run endpoint secret")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a watcher run on a running pulse server",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load(configFile)
		c := config.Get()
		endpoint := c.Watcher.Endpoint
		endpoint.ValidateURL(runServerURL)
		secret := runSecret
		if secret == "" {
			secret = c.Watcher.Secret
		}

		var result pulse.RunResult
		resp, err := resty.New().SetTimeout(5 * time.Minute).R().
			SetAuthToken(secret).
			SetResult(&result).
			Post(endpoint.URL)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return errors.Errorf("run trigger failed: %s: %s", resp.Status(), resp.String())
		}
		fmt.Printf(
			"run finished: processed=%d notified=%d took=%s\n",
			result.Processed, result.Notified,
			time.Duration(result.FinishedAt-result.StartedAt)*time.Millisecond,
		)
		return nil
	},
}
