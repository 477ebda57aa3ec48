package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/seekwell/atlas/internal/server/middleware"
	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
	"github.com/seekwell/atlas/pkg/orchestrator"
	storepgx "github.com/seekwell/atlas/pkg/store/pgx"
)

// QueryHandler answers one natural-language query for the caller's tenant.
func QueryHandler(c echo.Context) error {
	type historyTurn struct {
		Role    string `json:"role" validate:"oneof=user assistant"`
		Message string `json:"message" validate:"required"`
	}

	type queryRequest struct {
		Query         string        `json:"query" validate:"required"`
		History       []historyTurn `json:"history" validate:"dive"`
		RouteOverride string        `json:"route_override"`
		ResponseShape string        `json:"response_shape"`
		Profile       string        `json:"profile"`
	}

	type queryResponse struct {
		Message    string                    `json:"message"`
		Answer     string                    `json:"answer,omitempty"`
		RouteUsed  string                    `json:"route_used,omitempty"`
		Citations  []evidence.Citation       `json:"citations,omitempty"`
		Confidence *evidence.Confidence      `json:"confidence,omitempty"`
		Timing     *evidence.Timing          `json:"timing,omitempty"`
		Partial    bool                      `json:"partial,omitempty"`
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	profileName := data.Profile
	if profileName == "" {
		profileName = util.GetEnvString("ROUTE_PROFILE", "general")
	}
	profile, ok := orchestrator.ProfileByName(profileName)
	if !ok {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Unknown route profile",
		})
	}

	requestID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	o := orchestrator.New(
		storepgx.NewEvidenceStore(app.DBConn),
		app.AiClient,
		orchestrator.DefaultConfig(),
	)

	timeout := time.Duration(util.GetEnvNumeric("QUERY_TIMEOUT_MS", 60000)) * time.Millisecond
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	// a follow-up question gets rewritten into a standalone one before
	// routing; retrieval never sees the conversation history itself
	queryText := data.Query
	if len(data.History) > 0 {
		history := make([]ai.ChatMessage, len(data.History))
		for i, turn := range data.History {
			history[i] = ai.ChatMessage{Role: turn.Role, Message: turn.Message}
		}
		queryText = o.CondenseFollowUp(ctx, history, data.Query)
	}

	q := evidence.Query{
		ID:            requestID,
		Text:          queryText,
		GroupID:       user.GroupID,
		RouteOverride: data.RouteOverride,
		ResponseShape: data.ResponseShape,
	}

	result, err := o.Run(ctx, q, profile)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrRouteDisabled):
			return c.JSON(http.StatusBadRequest, queryResponse{
				Message: "Requested route is not enabled",
			})
		case errors.Is(err, orchestrator.ErrNoEvidence):
			return c.JSON(http.StatusConflict, queryResponse{
				Message: "No queryable data for this tenant and route",
			})
		case errors.Is(err, context.DeadlineExceeded):
			return c.JSON(http.StatusGatewayTimeout, queryResponse{
				Message: "Query timed out",
			})
		}
		logger.Error("query failed", "request", requestID, "group", user.GroupID, "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Message:    "Success",
		Answer:     result.Answer,
		RouteUsed:  result.RouteUsed,
		Citations:  result.Citations,
		Confidence: &result.Confidence,
		Timing:     &result.Timing,
		Partial:    result.Partial,
	})
}
