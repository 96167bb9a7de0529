package main

import (
	"log"
	"os"
	"time"

	"labstock-backend/controllers"
	"labstock-backend/models"
	"labstock-backend/routes"
	"labstock-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Загружаем .env, если он есть
	_ = godotenv.Load()

	// Инициализация базы данных
	db, err := models.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Автомиграция
	db.AutoMigrate(&models.User{}, &models.Category{}, &models.InventoryItem{}, &models.MaintenanceEntry{}, &models.BorrowTransaction{}, &models.TransactionItem{}, &models.Notification{})

	// Инициализация базовых категорий
	initDefaultCategories(db)

	// Создание Fiber приложения
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"code":    code,
			})
		},
	})

	// Middleware
	app.Use(logger.New())

	// CORS настройки
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Хаб уведомлений
	hub := services.NewHub()
	go hub.Run()

	// Сервисы ядра: диспетчер уведомлений, склад, выдачи, обслуживание
	notificationService := services.NewNotificationService(db, hub)
	inventoryService := services.NewInventoryService(db, notificationService)
	transactionService := services.NewTransactionService(db, inventoryService, notificationService)
	maintenanceService := services.NewMaintenanceService(db)

	// Инициализация контроллеров
	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	categoryController := controllers.NewCategoryController(db)
	itemController := controllers.NewItemController(db, maintenanceService)
	uploadController := controllers.NewUploadController(db)
	transactionController := controllers.NewTransactionController(db, transactionService)
	notificationController := controllers.NewNotificationController(db)
	dashboardController := controllers.NewDashboardController(db)

	// Настройка маршрутов
	routes.SetupAuthRoutes(app, authController)
	routes.SetupUserRoutes(app, userController)
	routes.SetupCategoryRoutes(app, categoryController)
	routes.SetupItemRoutes(app, itemController, uploadController)
	routes.SetupTransactionRoutes(app, transactionController)
	routes.SetupNotificationRoutes(app, notificationController)
	routes.SetupDashboardRoutes(app, dashboardController)

	// WebSocket маршрут для живых уведомлений
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.HandleWebSocket(c)
	}))

	// Планировщик: просрочка, напоминания, плановое обслуживание
	scheduler := services.NewScheduler(db, notificationService)
	scheduler.Start()

	// Общий health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "Labstock Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	// Запуск сервера
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		scheduler.Stop()
		log.Fatal(err)
	}
}

// initDefaultCategories инициализирует базовые категории оборудования
func initDefaultCategories(db *gorm.DB) {
	defaultCategories := []models.Category{
		{Name: "Микроскопы", Description: "Оптические и цифровые микроскопы", IsActive: true},
		{Name: "Измерительные приборы", Description: "Мультиметры, осциллографы, весы", IsActive: true},
		{Name: "Лабораторная посуда", Description: "Колбы, пробирки, мензурки", IsActive: true},
		{Name: "Нагревательное оборудование", Description: "Плитки, горелки, термостаты", IsActive: true},
		{Name: "Инструменты", Description: "Паяльники, отвертки, пинцеты", IsActive: true},
		{Name: "Компьютерная техника", Description: "Ноутбуки, планшеты, адаптеры", IsActive: true},
		{Name: "Расходные материалы", Description: "Перчатки, реактивы, фильтры", IsActive: true},
	}

	// Проверяем, есть ли уже категории в базе
	var count int64
	db.Model(&models.Category{}).Count(&count)

	if count == 0 {
		log.Println("Инициализация базовых категорий...")
		for _, category := range defaultCategories {
			if err := db.Create(&category).Error; err != nil {
				log.Printf("Ошибка при создании категории '%s': %v", category.Name, err)
			} else {
				log.Printf("Создана категория: %s", category.Name)
			}
		}
		log.Println("Базовые категории инициализированы")
	} else {
		log.Printf("Базовые категории уже существуют (%d элементов)", count)
	}
}
