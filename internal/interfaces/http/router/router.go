package router

import (
	"github.com/craftledger/backend/internal/infrastructure/auth"
	"github.com/craftledger/backend/internal/infrastructure/config"
	"github.com/craftledger/backend/internal/infrastructure/logger"
	"github.com/craftledger/backend/internal/interfaces/http/handler"
	"github.com/craftledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies holds everything the router needs to wire routes
type Dependencies struct {
	Config            *config.Config
	Logger            *zap.Logger
	JWTService        *auth.JWTService
	SystemHandler     *handler.SystemHandler
	AuthHandler       *handler.AuthHandler
	ItemHandler       *handler.ItemHandler
	LedgerHandler     *handler.LedgerHandler
	MembershipHandler *handler.MembershipHandler
}

// Setup builds the gin engine with all middleware and routes. Auth
// endpoints are public; everything else under /api/v1 requires a valid
// access token.
func Setup(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if len(deps.Config.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(logger.Recovery(deps.Logger))

	deps.SystemHandler.RegisterRoutes(engine)

	api := engine.Group("/api/v1")
	deps.AuthHandler.RegisterRoutes(api)

	protected := engine.Group("/api/v1")
	protected.Use(middleware.JWTAuth(deps.JWTService, deps.Logger))
	deps.ItemHandler.RegisterRoutes(protected)
	deps.LedgerHandler.RegisterRoutes(protected)
	deps.MembershipHandler.RegisterRoutes(protected)

	return engine, nil
}
