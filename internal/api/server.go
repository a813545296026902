package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/mitoc/trips-api/docs"
	v1 "github.com/mitoc/trips-api/internal/api/handler/v1"
	"github.com/mitoc/trips-api/internal/api/middleware"
	"github.com/mitoc/trips-api/internal/config"
	"github.com/mitoc/trips-api/internal/email"
	"github.com/mitoc/trips-api/internal/geardb"
	"github.com/mitoc/trips-api/internal/repository"
	"github.com/mitoc/trips-api/internal/repository/dao"
	"github.com/mitoc/trips-api/internal/service"
	"github.com/mitoc/trips-api/internal/waivers"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	tripHandler := s.initTripHandler(db)
	participantHandler := s.initParticipantHandler(db)
	s.MountHandlers(authHandler, tripHandler, participantHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	participantDAO := dao.NewParticipantDAO(db)
	repo := repository.NewParticipantRepository(participantDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initTripHandler(db *gorm.DB) *v1.TripHandler {
	tripRepo := repository.NewTripRepository(dao.NewTripDAO(db), dao.NewSignupDAO(db))
	lotteryRepo := repository.NewLotteryRepository(dao.NewLotteryAdjustmentDAO(db))
	svc := service.NewTripService(tripRepo, lotteryRepo)
	pSvc := service.NewParticipantService(repository.NewParticipantRepository(dao.NewParticipantDAO(db)))
	handler := v1.NewTripHandler(svc, pSvc)

	return handler
}

func (s *Server) initParticipantHandler(db *gorm.DB) *v1.ParticipantHandler {
	participantRepo := repository.NewParticipantRepository(dao.NewParticipantDAO(db))
	pSvc := service.NewParticipantService(participantRepo)
	mSvc := service.NewMembershipService(
		repository.NewMembershipRepository(dao.NewMembershipReminderDAO(db)),
		participantRepo,
		geardb.NewClient(s.Config.GearDB),
		waivers.NewClient(s.Config.Waivers),
		email.NewService(s.Config.SMTP),
	)
	handler := v1.NewParticipantHandler(pSvc, mSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, tripHandler *v1.TripHandler, participantHandler *v1.ParticipantHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	trips := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		trips.GET("/trips", tripHandler.HandleListTrips)
		trips.POST("/trips", tripHandler.HandleCreateTrip)
		trips.GET("/trips/:tripID", tripHandler.HandleGetTrip)
		trips.POST("/trips/:tripID/signup", tripHandler.HandleCreateSignup)
		trips.DELETE("/trips/:tripID/signup", tripHandler.HandleDeleteSignup)
		trips.GET("/trips/:tripID/admin/signups", tripHandler.HandleGetAdminSignups)
		trips.POST("/trips/:tripID/admin/signups", tripHandler.HandleReorderSignups)
		trips.POST("/lottery_adjustments", tripHandler.HandleCreateLotteryAdjustment)
		trips.GET("/lottery_adjustments", tripHandler.HandleListLotteryAdjustments)
	}

	participants := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		participants.GET("/participants/me", participantHandler.HandleGetProfile)
		participants.PUT("/participants/me/pairing", participantHandler.HandleRequestPairing)
		participants.GET("/participants/me/membership", participantHandler.HandleGetMembership)
		participants.POST("/participants/me/waiver", participantHandler.HandleInitiateWaiver)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Trips API"
	docs.SwaggerInfo.Description = "Trip signups, waitlists and lotteries for the club."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
