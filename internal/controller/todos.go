package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/krishnaqnq/todo/internal/cache"
	"github.com/krishnaqnq/todo/internal/middleware"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/internal/queue"
	"github.com/krishnaqnq/todo/internal/repository"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// TodoStore is the todo persistence surface the handlers need. Every read,
// update and delete is ownership-filtered: a todo owned by someone else
// behaves exactly like a missing one.
type TodoStore interface {
	List(ctx context.Context, ownerID string) ([]models.Todo, error)
	Get(ctx context.Context, id, ownerID string) (*models.Todo, error)
	Create(ctx context.Context, ownerID string, input repository.CreateTodoInput) (*models.Todo, error)
	Update(ctx context.Context, id, ownerID string, patch repository.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}

// TodoController serves the todo CRUD endpoints.
type TodoController struct {
	todos  TodoStore
	cache  *cache.TodoCache
	events *queue.Publisher
	group  singleflight.Group
}

func NewTodoController(todos TodoStore, c *cache.TodoCache, events *queue.Publisher) *TodoController {
	return &TodoController{todos: todos, cache: c, events: events}
}

// itemPayload is the wire shape of an item. Clients doing optimistic
// creation send a temp_ placeholder id, historically under "_id"; both keys
// are accepted and the placeholder is replaced by a store-issued id.
type itemPayload struct {
	ID         string            `json:"id"`
	LegacyID   string            `json:"_id"`
	Name       string            `json:"name"`
	Notes      string            `json:"notes"`
	Points     *float64          `json:"points"`
	Links      []string          `json:"links"`
	Images     []string          `json:"images"`
	Status     models.ItemStatus `json:"status"`
	TargetDate *time.Time        `json:"targetDate"`
	CreatedAt  *time.Time        `json:"createdAt"`
}

func (p itemPayload) toModel() models.Item {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}
	it := models.Item{
		ID:         id,
		Name:       p.Name,
		Notes:      p.Notes,
		Points:     p.Points,
		Links:      p.Links,
		Images:     p.Images,
		Status:     p.Status,
		TargetDate: p.TargetDate,
	}
	if p.CreatedAt != nil {
		it.CreatedAt = *p.CreatedAt
	}
	return it
}

func toItems(payloads []itemPayload) []models.Item {
	items := make([]models.Item, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, p.toModel())
	}
	return items
}

// List returns the caller's todos, newest first. Cache-first as raw bytes;
// concurrent misses for the same owner collapse into one database read.
func (tc *TodoController) List(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.Identity(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if b, ok := tc.cache.GetList(ctx, ownerID); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	v, err, _ := tc.group.Do(ownerID, func() (interface{}, error) {
		todos, err := tc.todos.List(context.Background(), ownerID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(todos)
	})
	if err != nil {
		logger.Error(ctx, "List todos failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todos"})
		return
	}
	b := v.([]byte)
	c.Data(http.StatusOK, "application/json", b)
	go tc.cache.SetList(context.Background(), ownerID, b)
}

// Get returns one todo, 404 when absent or owned by someone else.
func (tc *TodoController) Get(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.Identity(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	todo, err := tc.todos.Get(ctx, c.Param("id"), ownerID)
	if err != nil {
		logger.Error(ctx, "Get todo failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todo"})
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Create inserts a todo owned by the caller. Any owner field in the body is
// ignored; the owner always comes from the resolved identity.
func (tc *TodoController) Create(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.Identity(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var body struct {
		Title      string        `json:"title"`
		TargetDate *time.Time    `json:"targetDate"`
		Items      []itemPayload `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	todo, err := tc.todos.Create(ctx, ownerID, repository.CreateTodoInput{
		Title:      body.Title,
		TargetDate: body.TargetDate,
		Items:      toItems(body.Items),
	})
	if err != nil {
		fail(c, err)
		return
	}
	tc.afterMutation(ctx, "create", todo.ID, ownerID)
	c.JSON(http.StatusOK, todo)
}

// Update applies a patch to the caller's todo. Provided fields overwrite,
// omitted fields are retained — except the items array, which when provided
// replaces the stored array entirely, deleting any items omitted from it.
func (tc *TodoController) Update(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.Identity(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")
	var body struct {
		Title      *string        `json:"title"`
		TargetDate *time.Time     `json:"targetDate"`
		Items      *[]itemPayload `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	patch := repository.TodoPatch{
		Title:      body.Title,
		TargetDate: body.TargetDate,
	}
	if body.Items != nil {
		items := toItems(*body.Items)
		patch.Items = &items
	}
	todo, err := tc.todos.Update(ctx, id, ownerID, patch)
	if err != nil {
		fail(c, err)
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	tc.afterMutation(ctx, "update", todo.ID, ownerID)
	c.JSON(http.StatusOK, todo)
}

// Delete removes the caller's todo, 404 when absent or foreign.
func (tc *TodoController) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.Identity(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")
	deleted, err := tc.todos.Delete(ctx, id, ownerID)
	if err != nil {
		logger.Error(ctx, "Delete todo failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete todo"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	tc.afterMutation(ctx, "delete", id, ownerID)
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

// afterMutation keeps the cache coherent for the writer and emits the audit
// event. Invalidation is synchronous so a follow-up list read sees the write.
func (tc *TodoController) afterMutation(ctx context.Context, action, todoID, ownerID string) {
	tc.cache.InvalidateList(ctx, ownerID)
	tc.events.Publish(ctx, &models.TodoEvent{
		ID:         uuid.New().String(),
		Action:     action,
		TodoID:     todoID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	})
}
