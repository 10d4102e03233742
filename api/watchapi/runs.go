package watchapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devspacehq/pulse"
	"github.com/devspacehq/pulse/storage/model"
)

// registerRuns exposes the result of the most recent watcher run.
func registerRuns(r fiber.Router, kv model.KeyValueStore) {
	g := r.Group("/runs")

	g.Get(
		"/last", func(c *fiber.Ctx) error {
			var res pulse.RunResult
			found, err := kv.GetAs(model.KeyValueScopeWatcher, model.KeyValueKeyLastRun, &res)
			if err != nil {
				return serverError(c, err.Error())
			}
			if !found {
				return notFound(c, "no run recorded yet")
			}
			return c.JSON(res)
		},
	)
}
