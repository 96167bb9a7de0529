package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func setupAuthApp() *fiber.App {
	db := setupTestDB()

	app := fiber.New()
	authController := controllers.NewAuthController(db)

	// Настраиваем маршруты
	auth := app.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	return app
}

func TestRegister(t *testing.T) {
	app := setupAuthApp()

	tests := []struct {
		name            string
		request         controllers.RegisterRequest
		expectedStatus  int
		expectedSuccess bool
	}{
		{
			name: "Успешная регистрация",
			request: controllers.RegisterRequest{
				Name:            "Тест Пользователь",
				Email:           "test@example.com",
				Password:        "password123",
				ConfirmPassword: "password123",
				ContactNumber:   "+70000000000",
				Course:          "Физика-2",
			},
			expectedStatus:  201,
			expectedSuccess: true,
		},
		{
			name: "Неверный email",
			request: controllers.RegisterRequest{
				Name:            "Тест Пользователь",
				Email:           "invalid-email",
				Password:        "password123",
				ConfirmPassword: "password123",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
		{
			name: "Пароли не совпадают",
			request: controllers.RegisterRequest{
				Name:            "Тест Пользователь",
				Email:           "test2@example.com",
				Password:        "password123",
				ConfirmPassword: "password456",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
		{
			name: "Короткий пароль",
			request: controllers.RegisterRequest{
				Name:            "Тест Пользователь",
				Email:           "test3@example.com",
				Password:        "123",
				ConfirmPassword: "123",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonData, _ := json.Marshal(tt.request)
			req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(jsonData))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var response controllers.AuthResponse
			err = json.NewDecoder(resp.Body).Decode(&response)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSuccess, response.Success)

			if tt.expectedSuccess {
				assert.NotEmpty(t, response.Token)
				assert.NotEmpty(t, response.User.Email)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	app := setupAuthApp()

	// Сначала регистрируем пользователя
	registerReq := controllers.RegisterRequest{
		Name:            "Тест Пользователь",
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}

	jsonData, _ := json.Marshal(registerReq)
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	app.Test(req)

	tests := []struct {
		name            string
		request         controllers.LoginRequest
		expectedStatus  int
		expectedSuccess bool
	}{
		{
			name: "Успешный вход",
			request: controllers.LoginRequest{
				Email:    "test@example.com",
				Password: "password123",
			},
			expectedStatus:  200,
			expectedSuccess: true,
		},
		{
			name: "Неверный пароль",
			request: controllers.LoginRequest{
				Email:    "test@example.com",
				Password: "wrongpassword",
			},
			expectedStatus:  401,
			expectedSuccess: false,
		},
		{
			name: "Несуществующий пользователь",
			request: controllers.LoginRequest{
				Email:    "nonexistent@example.com",
				Password: "password123",
			},
			expectedStatus:  401,
			expectedSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonData, _ := json.Marshal(tt.request)
			req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(jsonData))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var response controllers.AuthResponse
			err = json.NewDecoder(resp.Body).Decode(&response)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSuccess, response.Success)

			if tt.expectedSuccess {
				assert.NotEmpty(t, response.Token)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	password := "testpassword123"

	// Хэшируем пароль
	hash, err := utils.HashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	// Проверяем пароль
	isValid := utils.CheckPasswordHash(password, hash)
	assert.True(t, isValid)

	// Проверяем неверный пароль
	isValid = utils.CheckPasswordHash("wrongpassword", hash)
	assert.False(t, isValid)
}

func TestMain(m *testing.M) {
	// Используем тот же секрет, что и в тестовых токенах
	os.Setenv("JWT_SECRET", "labstock-secret-key-change-in-production")

	// Запускаем тесты
	code := m.Run()

	// Очищаем
	os.Unsetenv("JWT_SECRET")

	os.Exit(code)
}
