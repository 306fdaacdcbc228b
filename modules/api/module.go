package api

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/modules/auth"
	"github.com/kaiodadalt/task-management-system/modules/task"
)

// APIModule is the HTTP driving adapter. It reaches the auth and task
// modules only through their ports.
type APIModule struct {
	cfg         config.Config
	app         *fiber.App
	authAdapter auth.AuthPort
	taskAdapter task.TaskPort
	hub         Subscriptions
	checks      map[string]HealthChecker
	logger      types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg config.Config, logger types.Logger) *APIModule {
	return &APIModule{cfg: cfg, checks: make(map[string]HealthChecker), logger: logger}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	}
}

// SetHub injects the websocket hub from the broadcast module.
func (m *APIModule) SetHub(hub Subscriptions) {
	m.hub = hub
}

// AddHealthCheck includes a module in the GET /health report.
func (m *APIModule) AddHealthCheck(name string, checker HealthChecker) {
	m.checks[name] = checker
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.hub == nil {
		m.logger.Warn("Hub not set, websocket endpoint disabled")
	}

	h := NewHandlers(m.authAdapter, m.taskAdapter, m.hub, m.logger)
	for name, checker := range m.checks {
		h.checks[name] = checker
	}
	m.app = newApp(h, m.authAdapter, true)

	addr := fmt.Sprintf(":%d", m.cfg.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.cfg.Port,
		},
	}
}

// newApp builds the Fiber application with every route.
func newApp(h *Handlers, validator TokenValidator, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New())

	gate := newTokenGate(validator)

	app.Get("/health", h.Health)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	if h.hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", gate.queryTokenMiddleware(), websocket.New(h.HandleWebSocket))
	}

	protected := app.Group("", gate.middleware())
	protected.Get("/user", h.Profile)
	protected.Post("/broadcasting/auth", h.AuthorizeChannel)

	tasks := protected.Group("/tasks")
	tasks.Post("", h.CreateTask)
	tasks.Get("/search", h.SearchTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)

	return app
}
