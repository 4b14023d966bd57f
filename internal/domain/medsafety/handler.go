package medsafety

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("/medication-safety", auth.RequireRole("admin", "physician", "nurse", "pharmacist"))
	group.POST("/validate", h.Validate)
	group.POST("/quick-check", h.QuickCheck)
	group.POST("/validate-batch", h.ValidateBatch)
}

type validateRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DrugName  string    `json:"drug_name"`
	Dose      float64   `json:"dose"`
	Unit      string    `json:"unit"`
	Frequency string    `json:"frequency"`
}

func (h *Handler) Validate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	resp, err := h.svc.ValidateMedicationOrder(c.Request().Context(), req.PatientID, req.DrugName, req.Dose, req.Unit, req.Frequency)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

type quickCheckRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DrugName  string    `json:"drug_name"`
}

func (h *Handler) QuickCheck(c echo.Context) error {
	var req quickCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	resp, err := h.svc.QuickValidate(c.Request().Context(), req.PatientID, req.DrugName)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

type validateBatchRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DrugNames []string  `json:"drug_names"`
}

func (h *Handler) ValidateBatch(c echo.Context) error {
	var req validateBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	resp, err := h.svc.ValidateMultipleDrugs(c.Request().Context(), req.PatientID, req.DrugNames)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
