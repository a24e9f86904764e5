package main

import (
	"log"
	"path/filepath"
	"strings"

	"anoa.com/reportdesk/internal/ability"
	"anoa.com/reportdesk/internal/config"
	"anoa.com/reportdesk/internal/handler"
	"anoa.com/reportdesk/internal/middleware"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/internal/repository"
	"anoa.com/reportdesk/internal/service"
	"anoa.com/reportdesk/internal/session"
	"anoa.com/reportdesk/pkg/database"
	"anoa.com/reportdesk/pkg/logging"
	"anoa.com/reportdesk/pkg/mailer"
	"anoa.com/reportdesk/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	logger := logging.Default()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opt)
	}

	var searchService service.SearchService
	if cfg.MeiliSearchHost != "" {
		client := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchService = service.NewSearchService(client)
	}

	var fileStorage storage.FileStorage
	switch cfg.StorageDriver {
	case "cloudinary":
		fileStorage, err = storage.NewCloudinaryStorage()
	default:
		fileStorage, err = storage.NewLocalStorage(cfg.UploadDir)
	}
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatalf("failed to initialize mailer: %v", err)
		}
	}

	sessions := session.NewManager(cfg.CookieSecret, cfg.AppEnv == "production")

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authService := service.NewAuthService(userRepo, mail, rdb, logger)
	userService := service.NewUserService(userRepo, reportRepo, fileStorage, searchService, logger)
	notificationService := service.NewNotificationService(notificationRepo, rdb)
	reportService := service.NewReportService(reportRepo, fileStorage, searchService, notificationService, mail, logger)

	authHandler := handler.NewAuthHandler(authService, userService, sessions)
	reportHandler := handler.NewReportHandler(reportService)
	notificationHandler := handler.NewNotificationHandler(notificationService, rdb)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, sessions)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	if cfg.StorageDriver == "local" {
		router.Static("/uploads", filepath.Join(cfg.UploadDir, "uploads"))
	}

	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/signin", authHandler.Signin)

		auth.GET("/signout", authMiddleware.RequireAuth(), authHandler.Signout)
		auth.GET("/profile", authMiddleware.RequireAuth(), authHandler.GetProfile)
		auth.PUT("/profile",
			authMiddleware.RequireAuth(),
			middleware.RequirePolicy(ability.ActionUpdate, ability.SubjectUser),
			authHandler.UpdateProfile)
		auth.GET("/users",
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdmin(),
			authHandler.ListUsers)
		auth.DELETE("/remove-profile",
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdmin(),
			middleware.RequirePolicy(ability.ActionDelete, ability.SubjectUser),
			authHandler.DeleteProfile)
	}

	report := router.Group("/report")
	report.Use(authMiddleware.RequireAuth())
	{
		report.POST("",
			middleware.RequirePolicy(ability.ActionCreate, ability.SubjectReport),
			reportHandler.CreateReport)
		report.GET("",
			middleware.RequirePolicy(ability.ActionRead, ability.SubjectReport),
			reportHandler.ListReports)
		report.GET("/search",
			middleware.RequirePolicy(ability.ActionRead, ability.SubjectReport),
			reportHandler.SearchReports)
		report.PUT("/:id",
			middleware.RequirePolicy(ability.ActionUpdate, ability.SubjectReport),
			reportHandler.UpdateReport)
		report.PUT("/confirm-approval/:id",
			authMiddleware.RequireAdmin(),
			middleware.RequirePolicy(ability.ActionApprove, ability.SubjectReport),
			reportHandler.ConfirmApproval)
	}

	notifications := router.Group("/notifications")
	notifications.Use(authMiddleware.RequireAuth())
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.GET("/ws", notificationHandler.HandleWebSocket)
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Report{},
		&model.ReportFile{},
		&model.Notification{},
	)
}

func seedRoles(db *gorm.DB) error {
	defaultRoles := []model.Role{
		{Name: model.RoleAdmin, Description: "Administrator"},
		{Name: model.RoleRegular, Description: "Regular user"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&model.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var adminRole model.Role
	if err := db.Where("name = ?", model.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@reportdesk.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := model.User{
		Email:        "admin@reportdesk.local",
		Name:         "Administrator",
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded successfully")
	log.Println("   Email: admin@reportdesk.local")
	log.Println("   Password: admin123")

	return nil
}
