package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Settings is the slice of the settings service the handlers use.
type Settings interface {
	Get(key, def string) string
	Set(key, value string, confidential bool) error
}

// confidentialKeys are settings whose values are stored encrypted and are
// never echoed back through the API.
var confidentialKeys = map[string]bool{
	"serpapi_key":        true,
	"twilio_account_sid": true,
	"twilio_auth_token":  true,
	"google_api_key":     true,
	"smtp_password":      true,
}

// SettingsHandler exposes the runtime settings store.
type SettingsHandler struct {
	settings Settings
}

func NewSettingsHandler(settings Settings) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/settings/:key", h.GetSetting)
	g.PUT("/settings", h.PutSetting)
}

func (h *SettingsHandler) GetSetting(c echo.Context) error {
	key := c.Param("key")
	if confidentialKeys[key] {
		configured := h.settings.Get(key, "") != ""
		return c.JSON(http.StatusOK, map[string]any{"key": key, "configured": configured})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"key":   key,
		"value": h.settings.Get(key, ""),
	})
}

func (h *SettingsHandler) PutSetting(c echo.Context) error {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	if err := h.settings.Set(req.Key, req.Value, confidentialKeys[req.Key]); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
