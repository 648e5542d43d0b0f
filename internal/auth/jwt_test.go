package auth

import (
	"strings"
	"testing"
	"time"
)

// TestGenerateJWT тестирует создание JWT токена
func TestGenerateJWT(t *testing.T) {
	user := &User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		IsAdmin:      false,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
	}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	if token == "" {
		t.Fatal("Пустой токен")
	}

	// Проверяем, что токен содержит точки (разделители частей JWT)
	if strings.Count(token, ".") != 2 {
		t.Errorf("Неверный формат JWT токена: %s", token)
	}
}

// TestValidateJWT тестирует валидацию JWT токена
func TestValidateJWT(t *testing.T) {
	user := &User{
		ID:       42,
		Username: "validuser",
		IsAdmin:  true,
	}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	playerID, isValid, isAdmin := ValidateJWT(token)

	if !isValid {
		t.Error("Валидный токен определен как недействительный")
	}
	if playerID != user.ID {
		t.Errorf("Неверный playerID: ожидался %d, получен %d", user.ID, playerID)
	}
	if !isAdmin {
		t.Error("Флаг администратора потерян")
	}
}

// TestValidateJWTInvalid тестирует отбраковку испорченного токена
func TestValidateJWTInvalid(t *testing.T) {
	if _, isValid, _ := ValidateJWT("not.a.token"); isValid {
		t.Error("Испорченный токен прошел валидацию")
	}
	if _, isValid, _ := ValidateJWT(""); isValid {
		t.Error("Пустой токен прошел валидацию")
	}
}

// TestMemoryUserRepo тестирует in-memory репозиторий пользователей
func TestMemoryUserRepo(t *testing.T) {
	repo := NewMemoryUserRepo()

	t.Run("Create and Get", func(t *testing.T) {
		user, err := repo.Create("player1", "secret-password", false)
		if err != nil {
			t.Fatalf("Ошибка создания пользователя: %v", err)
		}
		if user.ID == 0 {
			t.Error("Пользователю не присвоен ID")
		}
		if !CheckPassword(user.PasswordHash, "secret-password") {
			t.Error("Хеш пароля не совпадает с паролем")
		}

		found, exists, err := repo.GetByUsername("PLAYER1")
		if err != nil || !exists {
			t.Fatalf("Пользователь не найден без учета регистра: exists=%v err=%v", exists, err)
		}
		if found.Username != "player1" {
			t.Errorf("Неверное имя: %s", found.Username)
		}
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		if _, err := repo.Create("player1", "another-password", false); err == nil {
			t.Error("Повторное имя пользователя должно быть отвергнуто")
		}
	})

	t.Run("Short Password", func(t *testing.T) {
		if _, err := repo.Create("player2", "short", false); err == nil {
			t.Error("Короткий пароль должен быть отвергнут")
		}
	})

	t.Run("Default Admin", func(t *testing.T) {
		if err := repo.EnsureDefaultAdmin(""); err != nil {
			t.Fatalf("Ошибка создания admin: %v", err)
		}
		admin, exists, _ := repo.GetByUsername("admin")
		if !exists || !admin.IsAdmin {
			t.Error("Учетка admin не создана или без прав администратора")
		}
		// Повторный вызов не пересоздает учетку.
		if err := repo.EnsureDefaultAdmin("other-password"); err != nil {
			t.Errorf("Повторный EnsureDefaultAdmin вернул ошибку: %v", err)
		}
	})
}
