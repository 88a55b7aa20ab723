package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

// TrackerStore is the persistence surface the tracker handlers need.
type TrackerStore interface {
	Create(ctx context.Context, tracker *models.Tracker) error
	Get(ctx context.Context, id uint) (*models.Tracker, error)
	List(ctx context.Context, kind models.TrackerKind) ([]models.Tracker, error)
	Update(ctx context.Context, tracker *models.Tracker) error
	Delete(ctx context.Context, id uint) error
	Listings(ctx context.Context, trackerID uint) ([]models.Listing, error)
	MarkViewed(ctx context.Context, trackerID uint) error
}

// Checker runs tracker sweeps on demand.
type Checker interface {
	CheckTracker(ctx context.Context, tracker *models.Tracker) (int, error)
	CheckAll(ctx context.Context) (int, error)
}

// TrackerHandler serves the tracker CRUD and check endpoints.
type TrackerHandler struct {
	store    TrackerStore
	registry *sources.Registry
	checker  Checker
	validate *validator.Validate
}

func NewTrackerHandler(store TrackerStore, registry *sources.Registry, checker Checker) *TrackerHandler {
	return &TrackerHandler{
		store:    store,
		registry: registry,
		checker:  checker,
		validate: validator.New(),
	}
}

func (h *TrackerHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/trackers", h.CreateTracker)
	g.GET("/trackers", h.ListTrackers)
	g.GET("/trackers/:id", h.GetTracker)
	g.PUT("/trackers/:id", h.UpdateTracker)
	g.DELETE("/trackers/:id", h.DeleteTracker)
	g.POST("/trackers/:id/check", h.CheckTracker)
	g.POST("/trackers/check-all", h.CheckAllTrackers)
	g.GET("/trackers/:id/results", h.TrackerResults)
	g.GET("/platforms", h.ListPlatforms)
}

type trackerRequest struct {
	Kind           models.TrackerKind `json:"kind"`
	SearchQuery    string             `json:"search_query" validate:"required,max=300"`
	Category       string             `json:"category"`
	City           string             `json:"city"`
	MinPrice       *int               `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice       *int               `json:"max_price" validate:"omitempty,gte=0"`
	Platforms      []string           `json:"platforms"`
	WhatsAppNumber string             `json:"whatsapp_number"`
	IsActive       *bool              `json:"is_active"`
	Experience     string             `json:"experience"`
	JobType        string             `json:"job_type"`
	Checkin        string             `json:"checkin"`
	Checkout       string             `json:"checkout"`
	Guests         int                `json:"guests"`
	Rooms          int                `json:"rooms"`
}

func (h *TrackerHandler) CreateTracker(c echo.Context) error {
	var req trackerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Kind == "" {
		req.Kind = models.KindDeal
	}
	if len(req.Platforms) > 0 {
		if err := h.registry.ValidateTags(req.Kind, req.Platforms); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return echo.NewHTTPError(http.StatusBadRequest, "min_price exceeds max_price")
	}

	tracker := trackerFromRequest(&req)
	if err := h.store.Create(c.Request().Context(), tracker); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, tracker)
}

func (h *TrackerHandler) ListTrackers(c echo.Context) error {
	kind := models.TrackerKind(c.QueryParam("kind"))
	trackers, err := h.store.List(c.Request().Context(), kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, trackers)
}

func (h *TrackerHandler) GetTracker(c echo.Context) error {
	tracker, err := h.loadTracker(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tracker)
}

func (h *TrackerHandler) UpdateTracker(c echo.Context) error {
	tracker, err := h.loadTracker(c)
	if err != nil {
		return err
	}

	var req trackerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	// Updates are partial; absent fields keep their stored value, so only
	// the fields that did arrive are validated.
	if len(req.Platforms) > 0 {
		if err := h.registry.ValidateTags(tracker.Kind, req.Platforms); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return echo.NewHTTPError(http.StatusBadRequest, "min_price exceeds max_price")
	}

	applyTrackerRequest(tracker, &req)
	if err := h.store.Update(c.Request().Context(), tracker); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "tracker not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tracker)
}

func (h *TrackerHandler) DeleteTracker(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "tracker not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TrackerHandler) CheckTracker(c echo.Context) error {
	tracker, err := h.loadTracker(c)
	if err != nil {
		return err
	}
	count, err := h.checker.CheckTracker(c.Request().Context(), tracker)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tracker_id":   tracker.ID,
		"new_listings": count,
	})
}

func (h *TrackerHandler) CheckAllTrackers(c echo.Context) error {
	count, err := h.checker.CheckAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"new_listings": count})
}

// TrackerResults returns a tracker's listings and clears their new flag:
// fetching the results page counts as having seen them.
func (h *TrackerHandler) TrackerResults(c echo.Context) error {
	tracker, err := h.loadTracker(c)
	if err != nil {
		return err
	}
	listings, err := h.store.Listings(c.Request().Context(), tracker.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.store.MarkViewed(c.Request().Context(), tracker.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listings)
}

func (h *TrackerHandler) ListPlatforms(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		string(models.KindDeal):  h.registry.TagsForKind(models.KindDeal),
		string(models.KindJob):   h.registry.TagsForKind(models.KindJob),
		string(models.KindHotel): h.registry.TagsForKind(models.KindHotel),
	})
}

func (h *TrackerHandler) loadTracker(c echo.Context) (*models.Tracker, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	tracker, err := h.store.Get(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "tracker not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return tracker, nil
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func trackerFromRequest(req *trackerRequest) *models.Tracker {
	tracker := &models.Tracker{
		Kind:           req.Kind,
		SearchQuery:    req.SearchQuery,
		Category:       req.Category,
		City:           req.City,
		MinPrice:       req.MinPrice,
		MaxPrice:       req.MaxPrice,
		WhatsAppNumber: req.WhatsAppNumber,
		IsActive:       true,
		Experience:     req.Experience,
		JobType:        req.JobType,
		Checkin:        req.Checkin,
		Checkout:       req.Checkout,
		Guests:         req.Guests,
		Rooms:          req.Rooms,
	}
	if req.IsActive != nil {
		tracker.IsActive = *req.IsActive
	}
	tracker.SetPlatforms(req.Platforms)
	return tracker
}

func applyTrackerRequest(tracker *models.Tracker, req *trackerRequest) {
	if req.SearchQuery != "" {
		tracker.SearchQuery = req.SearchQuery
	}
	if req.Category != "" {
		tracker.Category = req.Category
	}
	if req.City != "" {
		tracker.City = req.City
	}
	if req.MinPrice != nil {
		tracker.MinPrice = req.MinPrice
	}
	if req.MaxPrice != nil {
		tracker.MaxPrice = req.MaxPrice
	}
	if len(req.Platforms) > 0 {
		tracker.SetPlatforms(req.Platforms)
	}
	if req.WhatsAppNumber != "" {
		tracker.WhatsAppNumber = req.WhatsAppNumber
	}
	if req.IsActive != nil {
		tracker.IsActive = *req.IsActive
	}
	if req.Experience != "" {
		tracker.Experience = req.Experience
	}
	if req.JobType != "" {
		tracker.JobType = req.JobType
	}
	if req.Checkin != "" {
		tracker.Checkin = req.Checkin
	}
	if req.Checkout != "" {
		tracker.Checkout = req.Checkout
	}
	if req.Guests > 0 {
		tracker.Guests = req.Guests
	}
	if req.Rooms > 0 {
		tracker.Rooms = req.Rooms
	}
}
