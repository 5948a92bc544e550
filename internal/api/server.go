package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/lottagg/raffle-api/docs"
	v1 "github.com/lottagg/raffle-api/internal/api/handler/v1"
	"github.com/lottagg/raffle-api/internal/api/middleware"
	"github.com/lottagg/raffle-api/internal/config"
	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository"
	"github.com/lottagg/raffle-api/internal/repository/dao"
	"github.com/lottagg/raffle-api/internal/service"
)

type Server struct {
	Config     *config.AppConfig
	Router     *gin.Engine
	Reconciler *service.Reconciler
}

func NewServer(conf *config.AppConfig, db *gorm.DB, gateway service.PaymentGateway) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	raffles := make([]domain.Raffle, len(conf.Raffle.Raffles))
	for i, spec := range conf.Raffle.Raffles {
		raffles[i] = domain.Raffle{
			ID:             spec.ID,
			Title:          spec.Title,
			TicketPriceWei: spec.TicketPriceWei,
			PrizeWei:       spec.PrizeWei,
			Capacity:       spec.Capacity,
		}
	}
	catalog := domain.NewCatalog(raffles)

	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	entryRepo := repository.NewEntryRepository(dao.NewEntryDAO(db))
	winnerRepo := repository.NewWinnerRepository(dao.NewWinnerDAO(db))

	drawSvc := service.NewFairDrawService(catalog, roundRepo, winnerRepo, entryRepo, int64(conf.Raffle.RakeBasisPoints))
	lifecycleSvc := service.NewLifecycleService(catalog, roundRepo, drawSvc, time.Duration(conf.Raffle.RoundDurationHours)*time.Hour)
	entrySvc := service.NewEntryService(catalog, lifecycleSvc, entryRepo, roundRepo, winnerRepo, gateway,
		time.Duration(conf.Chain.ConfirmTimeoutSeconds)*time.Second)
	statsSvc := service.NewStatsService(entryRepo, winnerRepo)

	s.Reconciler = service.NewReconciler(catalog, lifecycleSvc, drawSvc, entryRepo, roundRepo, winnerRepo, gateway,
		time.Duration(conf.Raffle.PendingEntryWindowMinutes)*time.Minute)

	raffleHandler := v1.NewRaffleHandler(lifecycleSvc, entrySvc, drawSvc, statsSvc)
	adminHandler := v1.NewAdminHandler(drawSvc, s.Reconciler)
	authHandler := v1.NewAuthHandler(conf.API)
	s.MountHandlers(raffleHandler, adminHandler, authHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(raffleHandler *v1.RaffleHandler, adminHandler *v1.AdminHandler, authHandler *v1.AuthHandler) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/token", authHandler.HandleOperatorToken)

		public.GET("/raffles", raffleHandler.HandleListRaffles)
		public.GET("/raffles/:raffleID/round", raffleHandler.HandleGetCurrentRound)
		public.GET("/raffles/:raffleID/rounds", raffleHandler.HandleGetRoundHistory)
		public.POST("/raffles/:raffleID/enter", raffleHandler.HandleEnterRaffle)
		public.GET("/raffles/:raffleID/entered", raffleHandler.HandleCheckEntered)

		public.GET("/rounds/:roundID", raffleHandler.HandleGetRound)
		public.GET("/rounds/:roundID/commit", raffleHandler.HandleGetCommit)
		public.GET("/rounds/:roundID/winner", raffleHandler.HandleGetRoundWinner)
		public.POST("/rounds/:roundID/claim", raffleHandler.HandleClaimPrize)

		public.GET("/winners", raffleHandler.HandleListWinners)

		public.GET("/users/:walletAddress/stats", raffleHandler.HandleGetUserStats)
		public.GET("/users/:walletAddress/transactions", raffleHandler.HandleGetUserTransactions)
		public.GET("/users/:walletAddress/wins", raffleHandler.HandleGetUserWins)
	}

	admin := s.Router.Group(basePath+"/admin", middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		admin.POST("/rounds/:roundID/draw", adminHandler.HandleDrawRound)
		admin.POST("/reconcile", adminHandler.HandleReconcile)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "lotta.gg raffle API"
	docs.SwaggerInfo.Description = "Crypto raffle platform with provably fair draws."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
