package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "ecotrace/internal/app"
	"ecotrace/internal/bootstrap"
	"ecotrace/internal/cache"
	"ecotrace/internal/repository"
	"ecotrace/internal/transport/http/handler"
	"ecotrace/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.StaticFile("/", "web/identify.html")
	router.StaticFile("/finder/", "web/finder.html")
	router.StaticFile("/tracker-page/", "web/tracker.html")
	router.StaticFile("/login/", "web/login.html")
	router.StaticFile("/signup/", "web/signup.html")
	router.Static("/static", "web/static")
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	trackerRepo := repository.NewTrackerRepository(app.MySQL)
	summaryCache := cache.NewSummaryCache(
		app.Redis,
		time.Duration(app.Config.Redis.SummaryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.SummaryDirtyTTLSeconds)*time.Second,
	)
	communityStats := cache.NewCommunityStatsStore(app.Redis)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	trackerService := appsvc.NewTrackerService(trackerRepo, app.DisposalPublisher, summaryCache)
	identifyService := appsvc.NewIdentifyService(
		app.Gateway,
		int64(app.Config.Identify.MaxImageMB)<<20,
	)

	authHandler := handler.NewAuthHandler(authService)
	identifyHandler := handler.NewIdentifyHandler(identifyService)
	trackerHandler := handler.NewTrackerHandler(trackerService, communityStats)

	secret := app.Config.Auth.JWTSecret
	router.POST("/signup/", authHandler.Register)
	router.POST("/login/", authHandler.Login)
	router.POST("/logout/", authHandler.Logout)
	router.GET("/me", middleware.AuthJWT(secret), authHandler.Me)

	router.POST("/identify/predict/", identifyHandler.Predict)
	router.GET("/tracker/", middleware.OptionalAuthJWT(secret), trackerHandler.Summary)
	router.POST("/update-tracker/", middleware.AuthJWT(secret), trackerHandler.Update)
	router.GET("/community-stats", trackerHandler.CommunityStats)

	return router
}
