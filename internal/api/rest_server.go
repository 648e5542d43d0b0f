package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/salazarsebas/Cougr/internal/auth"
	"github.com/salazarsebas/Cougr/internal/game"
	"github.com/salazarsebas/Cougr/internal/middleware"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	httpSrv  *http.Server
	sessions *game.SessionService
	userRepo auth.UserRepository
	port     string
	metrics  *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	Sessions *game.SessionService // игровой сервис
	UserRepo auth.UserRepository  // репозиторий пользователей
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("tetris_api"))

	promMw := middleware.NewPrometheusMiddleware("tetris_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		sessions: config.Sessions,
		userRepo: config.UserRepo,
		port:     config.Port,
		metrics:  NewServerMetrics(),
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Группа API
	api := rs.router.Group("/api")

	// Эндпоинты аутентификации (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
		authGroup.POST("/register", rs.handleRegister)
	}

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/server", rs.handleServerInfo)

		// Партии
		protected.POST("/sessions", rs.handleCreateSession)
		protected.GET("/sessions/:id", rs.handleGetSession)
		protected.DELETE("/sessions/:id", rs.handleDeleteSession)

		// Операции над партией
		protected.POST("/sessions/:id/left", rs.moveHandler("left"))
		protected.POST("/sessions/:id/right", rs.moveHandler("right"))
		protected.POST("/sessions/:id/rotate", rs.moveHandler("rotate"))
		protected.POST("/sessions/:id/soft-drop", rs.moveHandler("soft-drop"))
		protected.POST("/sessions/:id/hard-drop", rs.handleHardDrop)
		protected.POST("/sessions/:id/tick", rs.handleTick)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	UserID  uint64 `json:"user_id,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionResponse представляет ответ с состоянием партии
type SessionResponse struct {
	Success   bool            `json:"success"`
	SessionID string          `json:"session_id"`
	Applied   *bool           `json:"applied,omitempty"` // для left/right/rotate/soft-drop
	Dropped   *uint32         `json:"dropped,omitempty"` // для hard-drop
	State     tetris.Snapshot `json:"state"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, exists, err := rs.userRepo.GetByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}
	if !exists || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	_ = rs.userRepo.UpdateLastLogin(user.ID)

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	})
}

// handleRegister регистрирует нового игрока
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Имя пользователя должно быть от 3 до 30 символов",
		})
		return
	}

	user, err := rs.userRepo.Create(req.Username, req.Password, false)
	if err != nil {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Ошибка создания пользователя: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Пользователь успешно создан",
		Data: map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
		},
	})
}

// jwtMiddleware проверяет Bearer-токен в заголовке Authorization
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		playerID, isValid, isAdmin := auth.ValidateJWT(token)
		if !isValid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			return
		}

		c.Set("player_id", playerID)
		c.Set("is_admin", isAdmin)
		c.Next()
	}
}

// handleCreateSession создает новую партию
func (rs *RestServer) handleCreateSession(c *gin.Context) {
	sessionID, snap, err := rs.sessions.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка создания партии",
		})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		State:     snap,
	})
}

// handleGetSession возвращает текущее состояние партии
func (rs *RestServer) handleGetSession(c *gin.Context) {
	sessionID := c.Param("id")
	snap, err := rs.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		rs.sessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		State:     snap,
	})
}

// handleDeleteSession удаляет партию
func (rs *RestServer) handleDeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := rs.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка удаления партии",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Партия удалена",
	})
}

// moveHandler возвращает обработчик для операций, сообщающих флаг применения
func (rs *RestServer) moveHandler(op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		ctx := c.Request.Context()

		var (
			applied bool
			snap    tetris.Snapshot
			err     error
		)
		switch op {
		case "left":
			applied, snap, err = rs.sessions.MoveLeft(ctx, sessionID)
		case "right":
			applied, snap, err = rs.sessions.MoveRight(ctx, sessionID)
		case "rotate":
			applied, snap, err = rs.sessions.Rotate(ctx, sessionID)
		case "soft-drop":
			applied, snap, err = rs.sessions.SoftDrop(ctx, sessionID)
		}
		if err != nil {
			rs.sessionError(c, sessionID, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{
			Success:   true,
			SessionID: sessionID,
			Applied:   &applied,
			State:     snap,
		})
	}
}

// handleHardDrop роняет фигуру до упора
func (rs *RestServer) handleHardDrop(c *gin.Context) {
	sessionID := c.Param("id")
	dropped, snap, err := rs.sessions.HardDrop(c.Request.Context(), sessionID)
	if err != nil {
		rs.sessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		Dropped:   &dropped,
		State:     snap,
	})
}

// handleTick выполняет шаг гравитации
func (rs *RestServer) handleTick(c *gin.Context) {
	sessionID := c.Param("id")
	snap, err := rs.sessions.Tick(c.Request.Context(), sessionID)
	if err != nil {
		rs.sessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		State:     snap,
	})
}

// sessionError транслирует ошибки игрового сервиса в HTTP-статусы
func (rs *RestServer) sessionError(c *gin.Context, sessionID string, err error) {
	if errors.Is(err, game.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Партия " + sessionID + " не найдена",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, GenericResponse{
		Success: false,
		Message: "Внутренняя ошибка: " + err.Error(),
	})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	info := map[string]interface{}{
		"version":     "v0.1.0",
		"name":        "Tetris Game Server",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	rs.httpSrv = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}
	err := rs.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop останавливает REST сервер с graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpSrv == nil {
		return nil
	}
	return rs.httpSrv.Shutdown(ctx)
}
