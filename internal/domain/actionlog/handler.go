package actionlog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/arcalife/dental-api/internal/platform/auth"
	"github.com/arcalife/dental-api/pkg/pagination"
)

// Handler exposes the action log over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the action-log endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	write := auth.RequireRole("admin", "dentist")
	g.POST("/undo", h.Undo, write)
	g.GET("/actions", h.ListActions, auth.RequireRole("admin", "dentist", "assistant"))
}

type undoRequest struct {
	EntityID *uuid.UUID `json:"entity_id,omitempty"`
}

// Undo reverses the caller's most recent action. An optional entity_id in
// the body narrows the undo to one record.
func (h *Handler) Undo(c echo.Context) error {
	var req undoRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	entry, err := h.svc.Undo(c.Request().Context(), req.EntityID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoActionToUndo), errors.Is(err, ErrProcedureNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNoBackupForDelete), errors.Is(err, ErrNoBackupForEdit), errors.Is(err, ErrUnsupportedAction):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "undo failed")
		}
	}
	return c.JSON(http.StatusOK, entry)
}

// ListActions returns the caller's action history, newest first.
func (h *Handler) ListActions(c echo.Context) error {
	pg := pagination.FromContext(c)

	entries, total, err := h.svc.ListActions(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list actions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
