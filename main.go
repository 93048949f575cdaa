package main

import (
	"log"

	"backend_nae/api"
	"backend_nae/config"
	"backend_nae/database"
	"backend_nae/middleware"
	"backend_nae/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// initDB инициализирует подключение к базе данных
func initDB() {
	log.Println("🔧 Инициализация базы данных...")

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(); err != nil {
		log.Fatal("❌ Ошибка при создании базы данных:", err)
	}

	// Подключаемся к базе данных
	if err := database.ConnectDatabase(); err != nil {
		log.Fatal("❌ Ошибка подключения к базе данных:", err)
	}

	log.Println("✅ База данных успешно инициализирована")
}

func main() {
	// Конфигурация из окружения (.env подхватывается внутри LoadConfig)
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка конфигурации:", err)
	}
	cfg.LogConfig()

	// Инициализируем базу данных
	initDB()
	db := database.GetDB()

	// Redis опционален: без него черновики живут в памяти процесса
	var draftStore services.DraftStore
	if cfg.Redis.Enabled {
		if err := database.InitRedis(); err != nil {
			log.Printf("⚠️  Redis недоступен, черновики в памяти: %v", err)
		}
	}
	if client := database.GetRedis(); client != nil {
		draftStore = services.NewRedisDraftStore(client, 0)
	} else {
		draftStore = services.NewMemoryDraftStore()
	}

	// Сервисы
	crypto, err := services.NewCryptoService(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("❌ Ошибка инициализации шифрования:", err)
	}

	sheets := services.NewTestSheetService(db, crypto)
	reports := services.NewReportService()
	drafts := services.NewDraftService(draftStore)
	render := services.NewRenderClient(cfg.Render.ServiceURL, cfg.Render.Timeout, nil)
	notify := services.NewNotificationService(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID, nil)

	sessions := services.NewSessionService(db, cfg.Auth.SessionTTL, nil)
	if err := sessions.StartPruneScheduler(); err != nil {
		log.Fatal("❌ Ошибка запуска планировщика сессий:", err)
	}
	defer sessions.Stop()

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default()) // Для избежания CORS-ошибок

	// Базовые роуты
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	// API роуты
	auth := middleware.NewAuthMiddleware(db, sessions, cfg.Auth.JWTSecret)

	public := r.Group("/api")
	authAPI := api.NewAuthAPI(db, sessions, cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)
	authAPI.RegisterAuthRoutes(public, auth)

	protected := r.Group("/api")
	protected.Use(auth.RequireAuth())

	api.NewTestSheetAPI(sheets, drafts, notify).RegisterTestSheetRoutes(protected)
	api.NewReportsAPI(sheets, reports, render, cfg.App.ReportsDir).RegisterReportRoutes(protected)
	api.NewDraftsAPI(drafts).RegisterDraftRoutes(protected)
	api.NewTestTemplatesAPI(db).RegisterTemplateRoutes(protected)
	api.NewUsersAPI(db).RegisterUserRoutes(protected)

	log.Printf("🚀 Сервер запущен на порту %s", cfg.App.Port)
	if err := r.Run(cfg.App.Host + ":" + cfg.App.Port); err != nil {
		log.Fatal("❌ Ошибка запуска сервера:", err)
	}
}
