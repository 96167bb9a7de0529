package main

import (
	"testing"

	"labstock-backend/utils"

	"github.com/stretchr/testify/assert"
)

func TestJWTGenerationAndValidation(t *testing.T) {
	// Тестируем генерацию токена
	token, err := utils.GenerateJWT(1, "test@example.com", "student")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Тестируем валидацию токена
	claims, err := utils.ValidateJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)

	// Тестируем наш тестовый токен
	testToken := generateTestJWT(1)
	assert.NotEmpty(t, testToken)

	testUserID, err := validateTestJWT(testToken)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), testUserID)
}

func TestJWTInvalidToken(t *testing.T) {
	_, err := utils.ValidateJWT("not-a-token")
	assert.Error(t, err)
}
