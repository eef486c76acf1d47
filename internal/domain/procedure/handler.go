package procedure

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/arcalife/dental-api/internal/platform/auth"
	"github.com/arcalife/dental-api/pkg/pagination"
)

// Handler provides HTTP handlers for the procedure ledger.
type Handler struct {
	svc *Service
}

// NewHandler creates a new procedure ledger handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all ledger routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "dentist", "assistant")

	read := api.Group("", role)
	read.GET("/patients/:id/procedures", h.ListProcedures)
	read.GET("/procedures/:id", h.GetProcedure)

	write := api.Group("", auth.RequireRole("admin", "dentist"))
	write.POST("/patients/:id/procedures", h.CreateProcedure)
	write.POST("/patients/:id/extractions", h.CreateExtraction)
	write.POST("/patients/:id/bridges", h.CreateBridge)
	write.POST("/patients/:id/sealings", h.CreateSealing)
	write.PUT("/procedures/:id", h.UpdateProcedure)
	write.DELETE("/procedures/:id", h.DeleteProcedure)
}

func patientParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func (h *Handler) CreateProcedure(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	var rec ProcedureRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.PatientID = patientID
	if err := h.svc.CreateProcedure(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

type extractionRequest struct {
	Tooth   int               `json:"tooth"`
	Kind    ExtractionKind    `json:"kind"`
	Options ExtractionOptions `json:"options"`
}

func (h *Handler) CreateExtraction(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	var req extractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	recs, err := h.svc.CreateExtraction(c.Request().Context(), patientID, req.Tooth, req.Kind, req.Options)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, recs)
}

func (h *Handler) CreateBridge(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	var spec BridgeSpec
	if err := c.Bind(&spec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	spec.PatientID = patientID
	if spec.GroupID == "" {
		spec.GroupID = uuid.NewString()
	}
	recs, err := h.svc.CreateBridge(c.Request().Context(), spec)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(recs) == 0 {
		// Every target tooth already carries an overlay; nothing written.
		return c.JSON(http.StatusOK, []*ProcedureRecord{})
	}
	return c.JSON(http.StatusCreated, recs)
}

type sealingRequest struct {
	Teeth []int `json:"teeth"`
}

func (h *Handler) CreateSealing(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	var req sealingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	recs, err := h.svc.CreateSealing(c.Request().Context(), patientID, req.Teeth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, recs)
}

func (h *Handler) GetProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetProcedure(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var rec ProcedureRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id
	updated, err := h.svc.UpdateProcedure(c.Request().Context(), &rec)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteProcedure(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
