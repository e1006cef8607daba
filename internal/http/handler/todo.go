package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdeck.app/server/internal/http/dto"
	"taskdeck.app/server/internal/service"
	"taskdeck.app/server/internal/store"
)

type TodoHandler struct {
	todos service.TodoService
}

func NewTodoHandler(todos service.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

func (h *TodoHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateInput{
		Text:     req.Text,
		Priority: req.Priority,
		Tags:     req.Tags,
		DueDate:  req.DueDate,
	}
	if req.Starred != nil {
		input.Starred = *req.Starred
	}

	todo, err := h.todos.Create(ctx, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var filter service.ListFilter
	if v, ok, err := queryBool(c, "starred"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		filter.Starred = &v
	}
	if v, ok, err := queryBool(c, "completed"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		filter.Completed = &v
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be an integer"})
			return
		}
		filter.Priority = &priority
	}
	if raw := c.Query("tags"); raw != "" {
		filter.Tags = strings.Split(raw, ",")
	}

	todos, err := h.todos.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) GetByID(c *gin.Context) {
	todoID, ok := pathID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), todoID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	todoID, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.Update(ctx, todoID, service.UpdateInput{
		Text:      req.Text,
		Completed: req.Completed,
		Starred:   req.Starred,
		Priority:  req.Priority,
		Tags:      req.Tags,
		DueDate:   req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Delete(c *gin.Context) {
	todoID, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.todos.Delete(c.Request.Context(), todoID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": deleted})
}

func (h *TodoHandler) Star(c *gin.Context) {
	ctx := c.Request.Context()

	todoID, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ToggleStarredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.ToggleStarred(ctx, todoID, *req.Starred)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Priority(c *gin.Context) {
	ctx := c.Request.Context()

	todoID, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.SetPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.SetPriority(ctx, todoID, *req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Tags(c *gin.Context) {
	ctx := c.Request.Context()

	todoID, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.SetTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.SetTags(ctx, todoID, *req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Reorder(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Every id must parse before anything mutates.
	orderedIDs := make([]int64, 0, len(*req.OrderedIDs))
	for _, raw := range *req.OrderedIDs {
		todoID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderedIds must be decimal number strings, got " + strconv.Quote(raw)})
			return
		}
		orderedIDs = append(orderedIDs, todoID)
	}

	if err := h.todos.Reorder(ctx, orderedIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func pathID(c *gin.Context) (int64, bool) {
	todoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a decimal number string"})
		return 0, false
	}
	return todoID, true
}

func queryBool(c *gin.Context, key string) (value, present bool, err error) {
	raw := c.Query(key)
	if raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, errors.New(key + " must be true or false")
	}
	return v, true, nil
}

func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
