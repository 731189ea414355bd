package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// StatsLimit is the number of usage events returned by the stats endpoint
const StatsLimit = 100

type statsResponse struct {
	Total  int64               `json:"total"`
	Recent []model.ScriptUsage `json:"recent"`
}

func registerStats(r fiber.Router, usage model.UsageStore) {
	r.Get(
		"/stats", func(c *fiber.Ctx) error {
			total, err := usage.Count()
			if err != nil {
				return serverError(c, err, "could not count usage")
			}
			recent, err := usage.Recent(StatsLimit)
			if err != nil {
				return serverError(c, err, "could not list usage")
			}
			if recent == nil {
				recent = []model.ScriptUsage{}
			}
			return c.JSON(
				statsResponse{
					Total:  total,
					Recent: recent,
				},
			)
		},
	)
}
