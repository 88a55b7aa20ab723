package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/vineetmn/spice-outreach/internal/leads"
	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/queue"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

// ContactStore is the persistence surface the contact handlers need.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	Get(ctx context.Context, id uint) (*models.Contact, error)
	List(ctx context.Context, status, category string) ([]models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	SetStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	Messages(ctx context.Context, contactID uint) ([]models.MessageLog, error)
	RecentSearches(ctx context.Context, limit int) ([]models.SearchLog, error)
}

// Drafter produces outreach copy for a contact.
type Drafter interface {
	DraftOutreach(ctx context.Context, contact *models.Contact, product string) string
}

// OutreachQueue feeds contacts into the rate-limited send pipeline.
type OutreachQueue interface {
	Enqueue(msg queue.Message) error
	EnqueueNewContacts(ctx context.Context, subject, body string, limit int) (int, error)
}

// LeadSearcher runs web lead discovery.
type LeadSearcher interface {
	Run(ctx context.Context, query, category string) (*models.SearchLog, error)
}

// LeadScout scans YouTube comments for buying intent.
type LeadScout interface {
	FindLeads(ctx context.Context, query string, maxVideos int64) ([]leads.CommentLead, error)
}

// FacebookScout scans Facebook feeds for buying enquiries.
type FacebookScout interface {
	ScanPage(ctx context.Context, keyword string) (*leads.FacebookScanReport, error)
	ScanGroups(ctx context.Context, keyword string) (*leads.FacebookScanReport, error)
}

var validStatuses = map[string]bool{
	models.ContactStatusNew:       true,
	models.ContactStatusContacted: true,
	models.ContactStatusResponded: true,
	models.ContactStatusConverted: true,
	models.ContactStatusInactive:  true,
}

// ContactHandler serves the CRM side: contacts, outreach and lead search.
// Outreach sends pick a queue by channel name (email or whatsapp).
type ContactHandler struct {
	store    ContactStore
	drafter  Drafter
	queues   map[string]OutreachQueue
	searcher LeadSearcher
	scout    LeadScout
	fbScout  FacebookScout
	validate *validator.Validate
}

func NewContactHandler(store ContactStore, drafter Drafter, queues map[string]OutreachQueue, searcher LeadSearcher, scout LeadScout, fbScout FacebookScout) *ContactHandler {
	return &ContactHandler{
		store:    store,
		drafter:  drafter,
		queues:   queues,
		searcher: searcher,
		scout:    scout,
		fbScout:  fbScout,
		validate: validator.New(),
	}
}

func (h *ContactHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/contacts", h.CreateContact)
	g.GET("/contacts", h.ListContacts)
	g.GET("/contacts/:id", h.GetContact)
	g.PUT("/contacts/:id", h.UpdateContact)
	g.PATCH("/contacts/:id/status", h.SetContactStatus)
	g.DELETE("/contacts/:id", h.DeleteContact)
	g.GET("/contacts/:id/messages", h.ContactMessages)

	g.POST("/outreach/draft", h.DraftOutreach)
	g.POST("/outreach/send", h.SendOutreach)

	g.POST("/leads/search", h.SearchLeads)
	g.GET("/leads/searches", h.RecentSearches)
	g.POST("/leads/youtube", h.ScanYouTube)
	g.POST("/leads/facebook", h.ScanFacebook)
}

func (h *ContactHandler) CreateContact(c echo.Context) error {
	var contact models.Contact
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if contact.Status == "" {
		contact.Status = models.ContactStatusNew
	}

	err := h.store.Create(c.Request().Context(), &contact)
	if errors.Is(err, storage.ErrContactExists) {
		return echo.NewHTTPError(http.StatusConflict, "contact already exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) ListContacts(c echo.Context) error {
	contacts, err := h.store.List(c.Request().Context(), c.QueryParam("status"), c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) GetContact(c echo.Context) error {
	contact, err := h.loadContact(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) UpdateContact(c echo.Context) error {
	contact, err := h.loadContact(c)
	if err != nil {
		return err
	}
	if err := c.Bind(contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.store.Update(c.Request().Context(), contact); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) SetContactStatus(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if !validStatuses[req.Status] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	if err := h.store.SetStatus(c.Request().Context(), id, req.Status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContactHandler) DeleteContact(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContactHandler) ContactMessages(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	messages, err := h.store.Messages(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ContactHandler) DraftOutreach(c echo.Context) error {
	var req struct {
		ContactID uint   `json:"contact_id"`
		Product   string `json:"product"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	contact, err := h.store.Get(c.Request().Context(), req.ContactID)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	draft := h.drafter.DraftOutreach(c.Request().Context(), contact, req.Product)
	return c.JSON(http.StatusOK, map[string]string{"draft": draft})
}

func (h *ContactHandler) SendOutreach(c echo.Context) error {
	var req struct {
		ContactID uint   `json:"contact_id"`
		Channel   string `json:"channel"`
		Subject   string `json:"subject"`
		Body      string `json:"body" validate:"required"`
		Limit     int    `json:"limit"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}
	if req.Channel == "" {
		req.Channel = models.ChannelEmail
	}
	sendQueue, ok := h.queues[req.Channel]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown channel")
	}

	// A contact_id targets one contact; without it the batch path drains
	// untouched contacts up to the limit.
	if req.ContactID != 0 {
		contact, err := h.store.Get(c.Request().Context(), req.ContactID)
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := sendQueue.Enqueue(queue.Message{Contact: *contact, Subject: req.Subject, Body: req.Body}); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(http.StatusAccepted, map[string]int{"queued": 1})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	queued, err := sendQueue.EnqueueNewContacts(c.Request().Context(), req.Subject, req.Body, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]int{"queued": queued})
}

func (h *ContactHandler) SearchLeads(c echo.Context) error {
	var req struct {
		Query    string `json:"query"`
		Category string `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	log, err := h.searcher.Run(c.Request().Context(), req.Query, req.Category)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, log)
}

func (h *ContactHandler) RecentSearches(c echo.Context) error {
	logs, err := h.store.RecentSearches(c.Request().Context(), 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *ContactHandler) ScanYouTube(c echo.Context) error {
	var req struct {
		Query     string `json:"query"`
		MaxVideos int64  `json:"max_videos"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	found, err := h.scout.FindLeads(c.Request().Context(), req.Query, req.MaxVideos)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, found)
}

func (h *ContactHandler) ScanFacebook(c echo.Context) error {
	var req struct {
		Target  string `json:"target"`
		Keyword string `json:"keyword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	var (
		report *leads.FacebookScanReport
		err    error
	)
	switch req.Target {
	case "", "page":
		report, err = h.fbScout.ScanPage(c.Request().Context(), req.Keyword)
	case "groups":
		report, err = h.fbScout.ScanGroups(c.Request().Context(), req.Keyword)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "target must be page or groups")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ContactHandler) loadContact(c echo.Context) (*models.Contact, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	contact, err := h.store.Get(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return contact, nil
}
