package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// UserRepository определяет интерфейс хранилища учетных записей.
type UserRepository interface {
	// GetByUsername возвращает пользователя по имени (без учета регистра).
	GetByUsername(username string) (*User, bool, error)

	// Create создает нового пользователя и присваивает ему ID.
	Create(username, password string, isAdmin bool) (*User, error)

	// UpdateLastLogin обновляет время последнего входа.
	UpdateLastLogin(userID uint64) error
}

// MemoryUserRepo реализует UserRepository в памяти.
// Используется, когда внешняя БД пользователей не нужна: у игрового
// сервера одна служебная учетка плюс регистрируемые на лету игроки.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[string]*User // ключ — имя в нижнем регистре
	nextID uint64
}

// NewMemoryUserRepo создает пустой репозиторий пользователей.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:  make(map[string]*User),
		nextID: 1,
	}
}

// EnsureDefaultAdmin создает учетку admin с заданным паролем, если ее нет.
func (r *MemoryUserRepo) EnsureDefaultAdmin(password string) error {
	if password == "" {
		password = "ChangeMe123!"
	}
	if _, exists, _ := r.GetByUsername("admin"); exists {
		return nil
	}
	_, err := r.Create("admin", password, true)
	return err
}

// GetByUsername возвращает пользователя по имени.
func (r *MemoryUserRepo) GetByUsername(username string) (*User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[strings.ToLower(username)]
	if !exists {
		return nil, false, nil
	}
	copied := *user
	return &copied, true, nil
}

// Create создает нового пользователя с bcrypt-хешем пароля.
func (r *MemoryUserRepo) Create(username, password string, isAdmin bool) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("пустое имя пользователя")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("пароль короче 8 символов")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(username)
	if _, exists := r.users[key]; exists {
		return nil, fmt.Errorf("пользователь %s уже существует", username)
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		IsAdmin:      isAdmin,
	}
	r.nextID++
	r.users[key] = user

	copied := *user
	return &copied, nil
}

// UpdateLastLogin обновляет время последнего входа.
func (r *MemoryUserRepo) UpdateLastLogin(userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ID == userID {
			user.LastLogin = time.Now()
			return nil
		}
	}
	return fmt.Errorf("пользователь %d не найден", userID)
}
