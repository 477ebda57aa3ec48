package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/seekwell/atlas/pkg/ai"
)

// AppUser is the authenticated caller. GroupID is the tenant every
// evidence lookup issued on the caller's behalf is scoped to.
type AppUser struct {
	UserID  int64
	GroupID string
	Role    string
}

type App struct {
	DBConn       *pgxpool.Pool
	Key          *keyfunc.Keyfunc
	AiClient     ai.GraphAIClient
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	key *keyfunc.Keyfunc,
	aiClient ai.GraphAIClient,
	masterAPIKey string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:       db,
				Key:          key,
				AiClient:     aiClient,
				MasterAPIKey: masterAPIKey,
			}
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
