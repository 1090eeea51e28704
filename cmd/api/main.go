package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"langarchive/internal/config"
	"langarchive/internal/database"
	"langarchive/internal/domain"
	"langarchive/internal/domain/auth"
	"langarchive/internal/domain/catalog"
	"langarchive/internal/domain/deposit"
	"langarchive/internal/domain/notification"
	"langarchive/internal/domain/report"
	"langarchive/internal/middleware"
	jwtsvc "langarchive/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&catalog.Languoid{},
		&catalog.Collection{},
		&catalog.Item{},
		&catalog.Collaborator{},
		&catalog.ItemCollaborator{},
		&deposit.Deposit{},
		&deposit.DepositFile{},
		&deposit.InvolvedUser{},
		&deposit.DepositEvent{},
		&notification.Notification{},
	); err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, j)
	authHandler := auth.NewHandler(authService)

	catalogRepo := catalog.NewRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	hub := notification.NewHub()
	notifRepo := notification.NewRepository(db)
	notifService := notification.NewService(notifRepo, hub)
	notifHandler := notification.NewHandler(notifService, hub)

	depositRepo := deposit.NewRepository(db)
	depositEngine := deposit.NewEngine(db, notifService)
	depositFiles := deposit.NewFileService(depositRepo, cfg.UploadDir, cfg.MaxUploadSize)
	depositHandler := deposit.NewHandler(depositRepo, depositEngine, depositFiles, cfg.DepositDraftLimit)

	reportService := report.NewService(db)
	reportHandler := report.NewHandler(reportService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		auth.RegisterRoutes(v1, authHandler)
		catalog.RegisterPublicRoutes(v1, catalogHandler)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			auth.RegisterProtectedRoutes(protected, authHandler)
			deposit.RegisterRoutes(protected, depositHandler)
			notification.RegisterRoutes(protected, notifHandler)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			{
				catalog.RegisterAdminRoutes(admin, catalogHandler)
			}

			staff := protected.Group("/")
			staff.Use(middleware.RequireRole(string(domain.RoleReviewer), string(domain.RoleAdmin)))
			{
				report.RegisterRoutes(staff, reportHandler)
			}
		}
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
