package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seekwell/atlas/pkg/orchestrator"
)

// GetProfilesHandler lists the route profiles a query can be run under.
func GetProfilesHandler(c echo.Context) error {
	type profileData struct {
		Name   string   `json:"name"`
		Routes []string `json:"routes"`
	}

	type profilesResponse struct {
		Message string        `json:"message"`
		Data    []profileData `json:"data"`
	}

	profiles := orchestrator.Profiles()
	data := make([]profileData, 0, len(profiles))
	for _, p := range profiles {
		data = append(data, profileData{
			Name:   p.Name,
			Routes: p.Routes(),
		})
	}

	return c.JSON(http.StatusOK, profilesResponse{
		Message: "Success",
		Data:    data,
	})
}
