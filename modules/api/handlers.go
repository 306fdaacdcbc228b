package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	taskdomain "github.com/kaiodadalt/task-management-system/domain/task"
	userdomain "github.com/kaiodadalt/task-management-system/domain/user"
	"github.com/kaiodadalt/task-management-system/events"
	"github.com/kaiodadalt/task-management-system/modules/auth"
	"github.com/kaiodadalt/task-management-system/modules/broadcast"
	"github.com/kaiodadalt/task-management-system/modules/task"
)

// Subscriptions is the part of the broadcast hub the websocket endpoint uses.
type Subscriptions interface {
	Register(client *broadcast.Client) bool
	Unregister(client *broadcast.Client)
	ClientCount() int
}

// HealthChecker reports the health of one module.
type HealthChecker interface {
	Health(ctx context.Context) mono.HealthStatus
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authAdapter auth.AuthPort
	taskAdapter task.TaskPort
	hub         Subscriptions
	checks      map[string]HealthChecker
	logger      types.Logger
}

// NewHandlers creates a new Handlers instance. hub may be nil, which
// disables the websocket endpoint.
func NewHandlers(authAdapter auth.AuthPort, taskAdapter task.TaskPort, hub Subscriptions, logger types.Logger) *Handlers {
	return &Handlers{
		authAdapter: authAdapter,
		taskAdapter: taskAdapter,
		hub:         hub,
		checks:      make(map[string]HealthChecker),
		logger:      logger,
	}
}

// Health aggregates the health of every registered module. Any unhealthy
// module turns the response into a 503.
func (h *Handlers) Health(c *fiber.Ctx) error {
	healthy := true
	modules := make(fiber.Map, len(h.checks))
	for name, checker := range h.checks {
		status := checker.Health(c.UserContext())
		if !status.Healthy {
			healthy = false
		}
		modules[name] = fiber.Map{
			"healthy": status.Healthy,
			"message": status.Message,
		}
	}

	body := fiber.Map{
		"status":  "healthy",
		"modules": modules,
	}
	if h.hub != nil {
		body["connected_clients"] = h.hub.ClientCount()
	}
	if !healthy {
		body["status"] = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, err := h.authAdapter.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	tokens, err := h.authAdapter.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(toTokenResponse(tokens))
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.authAdapter.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return writeAuthError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(toTokenResponse(tokens))
}

// Profile returns the authenticated user.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}

	user, err := h.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return writeAuthError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(toUserResponse(user))
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}
	in, err := parseInput(c)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}

	t, err := h.taskAdapter.CreateTask(c.UserContext(), claims.UserID, in)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(TaskEnvelope{Task: toTaskResponse(t)})
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}
	id, ok := taskID(c)
	if !ok {
		return writeTaskError(c, h.logger, taskdomain.ErrNotFound)
	}

	t, err := h.taskAdapter.GetTask(c.UserContext(), claims.UserID, id)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(TaskEnvelope{Task: toTaskResponse(t)})
}

// UpdateTask handles PUT /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}
	id, ok := taskID(c)
	if !ok {
		return writeTaskError(c, h.logger, taskdomain.ErrNotFound)
	}
	in, err := parseInput(c)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}

	t, err := h.taskAdapter.UpdateTask(c.UserContext(), claims.UserID, id, in)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(TaskEnvelope{Task: toTaskResponse(t)})
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}
	id, ok := taskID(c)
	if !ok {
		return writeTaskError(c, h.logger, taskdomain.ErrNotFound)
	}

	if err := h.taskAdapter.DeleteTask(c.UserContext(), claims.UserID, id); err != nil {
		return writeTaskError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchTasks handles GET /tasks/search.
func (h *Handlers) SearchTasks(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}

	q := task.SearchQuery{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      c.Query("page"),
		PerPage:   c.Query("per_page"),
	}
	page, err := h.taskAdapter.SearchTasks(c.UserContext(), claims.UserID, q)
	if err != nil {
		return writeTaskError(c, h.logger, err)
	}

	data := make([]TaskResponse, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, toTaskResponse(&page.Items[i]))
	}

	links := PageLinks{
		First: pageURL(c, 1),
		Last:  pageURL(c, page.LastPage()),
	}
	if prev := page.PrevPage(); prev != nil {
		u := pageURL(c, *prev)
		links.Prev = &u
	}
	if next := page.NextPage(); next != nil {
		u := pageURL(c, *next)
		links.Next = &u
	}

	return c.Status(fiber.StatusOK).JSON(SearchResponse{
		Data: data,
		Meta: PageMeta{
			CurrentPage: page.CurrentPage,
			From:        page.From(),
			To:          page.To(),
			LastPage:    page.LastPage(),
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
		Links: links,
	})
}

// AuthorizeChannel handles POST /broadcasting/auth. Only the owner of a
// private user channel may subscribe to it.
func (h *Handlers) AuthorizeChannel(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthorized(c, "Unauthenticated.")
	}

	var req ChannelAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !events.CanSubscribe(claims.UserID, req.ChannelName) {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "This action is unauthorized.",
		})
	}
	return c.Status(fiber.StatusOK).JSON(ChannelAuthResponse{
		Channel: req.ChannelName,
		UserID:  claims.UserID,
	})
}

// HandleWebSocket subscribes the connection to the caller's own channel
// until the client disconnects. Incoming frames are ignored.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(UserContextKey).(*userdomain.Claims)
	if !ok || claims == nil {
		_ = c.Close()
		return
	}

	client := broadcast.NewClient(claims.UserID, events.UserChannel(claims.UserID), c)
	if !h.hub.Register(client) {
		_ = c.Close()
		return
	}
	defer func() {
		h.hub.Unregister(client)
		_ = c.Close()
	}()

	h.logger.Info("WebSocket connected", "client_id", client.ID, "user_id", claims.UserID)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket error", "client_id", client.ID, "error", err)
			}
			break
		}
	}
	h.logger.Info("WebSocket disconnected", "client_id", client.ID, "user_id", claims.UserID)
}

// parseInput decodes the JSON body. An empty body is an empty input.
func parseInput(c *fiber.Ctx) (taskdomain.Input, error) {
	var in taskdomain.Input
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return taskdomain.Input{}, fieldTypeError(typeErr)
		}
		return taskdomain.Input{}, taskdomain.NewValidationError("body", "The request body must be a valid JSON object.")
	}
	return in, nil
}

// fieldTypeError reports a wrongly typed field under its own key.
func fieldTypeError(typeErr *json.UnmarshalTypeError) error {
	field := typeErr.Field
	label := strings.ReplaceAll(field, "_", " ")
	switch typeErr.Type.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if strings.HasPrefix(typeErr.Value, "number") {
			return taskdomain.NewValidationError(field, fmt.Sprintf("The %s field must be a positive integer.", label))
		}
		return taskdomain.NewValidationError(field, fmt.Sprintf("The %s field must be an integer.", label))
	case reflect.String:
		return taskdomain.NewValidationError(field, fmt.Sprintf("The %s field must be a string.", label))
	default:
		return taskdomain.NewValidationError(field, fmt.Sprintf("The %s field is invalid.", label))
	}
}

// taskID parses the :id route parameter. Anything that is not a positive
// integer cannot name a task.
func taskID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageURL returns the current URL with page replaced, keeping every other
// query parameter.
func pageURL(c *fiber.Ctx, page int) string {
	values := url.Values{}
	for k, v := range c.Queries() {
		values.Set(k, v)
	}
	values.Set("page", strconv.Itoa(page))
	return c.BaseURL() + c.Path() + "?" + values.Encode()
}
