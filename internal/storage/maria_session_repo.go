package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/salazarsebas/Cougr/internal/config"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// MariaSessionRepo реализует SessionRepo для MariaDB.
// Снапшот хранится JSON-колонкой: партия маленькая, и читается/пишется
// она всегда целиком.
type MariaSessionRepo struct {
	db *sql.DB
}

// NewMariaSessionRepo создает подключение к MariaDB и возвращает репозиторий.
func NewMariaSessionRepo(cfg config.MariaConfig) (*MariaSessionRepo, error) {
	// Устанавливаем значения по умолчанию
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Database == "" {
		cfg.Database = "tetris"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть подключение к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	repo := &MariaSessionRepo{db: db}

	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}

	return repo, nil
}

// createTables создает необходимые таблицы в БД
func (r *MariaSessionRepo) createTables() error {
	createSessionsTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(64) NOT NULL PRIMARY KEY,
		state JSON NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	_, err := r.db.Exec(createSessionsTable)
	return err
}

// Save сохраняет снапшот партии (insert или update).
func (r *MariaSessionRepo) Save(ctx context.Context, sessionID string, snap tetris.Snapshot) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}

	query := `INSERT INTO sessions (session_id, state) VALUES (?, ?)
	          ON DUPLICATE KEY UPDATE state = VALUES(state)`
	if _, err := r.db.ExecContext(ctx, query, sessionID, data); err != nil {
		return fmt.Errorf("ошибка записи партии %s: %w", sessionID, err)
	}
	return nil
}

// Load загружает снапшот партии.
func (r *MariaSessionRepo) Load(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error) {
	var snap tetris.Snapshot

	if sessionID == "" {
		return snap, false, fmt.Errorf("пустой sessionID")
	}

	var data []byte
	query := `SELECT state FROM sessions WHERE session_id = ?`
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("ошибка чтения партии %s: %w", sessionID, err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false, fmt.Errorf("ошибка десериализации снапшота: %w", err)
	}
	return snap, true, nil
}

// Delete удаляет партию.
func (r *MariaSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("ошибка удаления партии %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("партия %s не найдена", sessionID)
	}
	return nil
}

// Close закрывает подключение к БД.
func (r *MariaSessionRepo) Close() error {
	return r.db.Close()
}
