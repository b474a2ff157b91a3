package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FernanDeHoyos/api-rick/internal/model"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/catalog"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// dueDateLayout is the ISO calendar-date format tasks accept.
const dueDateLayout = "2006-01-02"

// taskRequest is the payload for both create and edit. Edit replaces
// title/description/due date/status wholesale.
type taskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"` // "2006-01-02", empty = none
	Status      string `json:"status"`   // open string, defaults to Pending
}

// enrichedTask pairs a task with its best-effort catalog record.
// Character is null whenever there is no reference or the catalog is
// unreachable.
type enrichedTask struct {
	Task      model.Task         `json:"task"`
	Character *catalog.Character `json:"character"`
}

// handleListTasks returns the authenticated user's tasks, enriched.
//
// GET / and GET /tasks
func (s *Server) handleListTasks(c *gin.Context) {
	userID := getUserID(c)

	tasks, err := s.taskStore.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}

	enriched := make([]enrichedTask, 0, len(tasks))
	for _, task := range tasks {
		var character *catalog.Character
		if task.CharacterID != nil {
			// A catalog outage only drops the enrichment, never the task.
			if ch, err := s.catalog.Character(c.Request.Context(), *task.CharacterID); err == nil {
				character = ch
			}
		}
		enriched = append(enriched, enrichedTask{Task: task, Character: character})
	}

	c.JSON(http.StatusOK, gin.H{"tasks": enriched})
}

// handleCreateTask creates a task owned by the current user.
//
// POST /task/create
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dueDate, ok := parseDueDate(c, req.DueDate)
	if !ok {
		return
	}

	status := req.Status
	if status == "" {
		status = model.DefaultTaskStatus
	}

	task := model.Task{
		UserID:      getUserID(c),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      status,
	}

	if err := s.taskStore.Create(c.Request.Context(), &task); err != nil {
		s.logger.Error("create task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create task failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": task.ID})
}

// handleEditTask overwrites an owned task's fields.
//
// POST /task/edit/:id
func (s *Server) handleEditTask(c *gin.Context) {
	task, ok := s.loadOwnedTask(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dueDate, ok := parseDueDate(c, req.DueDate)
	if !ok {
		return
	}

	status := req.Status
	if status == "" {
		status = model.DefaultTaskStatus
	}

	task.Title = req.Title
	task.Description = req.Description
	task.DueDate = dueDate
	task.Status = status

	if err := s.taskStore.Update(c.Request.Context(), task); err != nil {
		s.logger.Error("update task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update task failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": task.ID})
}

// handleDeleteTask deletes an owned task.
//
// POST /task/delete/:id
func (s *Server) handleDeleteTask(c *gin.Context) {
	task, ok := s.loadOwnedTask(c)
	if !ok {
		return
	}

	if err := s.taskStore.Delete(c.Request.Context(), task.ID); err != nil {
		s.logger.Error("delete task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete task failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": task.ID})
}

// handleAssociateCharacter stores a catalog reference on an owned task.
// The id is not validated against the catalog at write time.
//
// POST /task/associate_character/:id/:characterID
func (s *Server) handleAssociateCharacter(c *gin.Context) {
	task, ok := s.loadOwnedTask(c)
	if !ok {
		return
	}

	characterID, err := strconv.Atoi(c.Param("characterID"))
	if err != nil || characterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	if err := s.taskStore.SetCharacter(c.Request.Context(), task.ID, characterID); err != nil {
		s.logger.Error("associate character failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "associate character failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": task.ID, "character_id": characterID})
}

// loadOwnedTask resolves the :id param to a task and enforces the
// ownership rule: resolve first (404), compare owner second (403, no
// mutation). Handlers only touch the store after both checks pass.
// A non-numeric id can never match a task, so it is a 404 too.
func (s *Server) loadOwnedTask(c *gin.Context) (*model.Task, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil, false
	}

	task, err := s.taskStore.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return nil, false
		}
		s.logger.Error("load task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load task failed"})
		return nil, false
	}

	if task.UserID != getUserID(c) {
		metrics.ForbiddenMutationsTotal.Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not own this task"})
		return nil, false
	}

	return task, true
}

// parseDueDate parses an optional ISO calendar date. Writes a 400 and
// returns ok=false on malformed input.
func parseDueDate(c *gin.Context, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(dueDateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date, expected YYYY-MM-DD"})
		return nil, false
	}
	return &d, true
}
