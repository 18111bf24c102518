package controller

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/types"
	"github.com/Adbay/widget-weather/internal/modules/widget/views"
	"github.com/Adbay/widget-weather/internal/utils"
)

type setPreferenceRequest struct {
	Value string `json:"value"`
}

func (c *widgetControllerImpl) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	c.writeHTML(w, c.runPageLoad(r), views.RenderPage)
}

func (c *widgetControllerImpl) handleWidgetPartial(w http.ResponseWriter, r *http.Request) {
	c.writeHTML(w, c.runPageLoad(r), views.RenderWidgetPartial)
}

// writeHTML renders into a buffer first so a template failure still yields
// a clean 500.
func (c *widgetControllerImpl) writeHTML(w http.ResponseWriter, data *views.WidgetData, render func(io.Writer, *views.WidgetData) error) {
	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		c.logger.Error("widget template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("widget: write response failed", "error", err)
	}
}

func (c *widgetControllerImpl) handleWidget(w http.ResponseWriter, r *http.Request) {
	data := c.runPageLoad(r)
	utils.WriteJSON(w, http.StatusOK, surface.Snapshot{
		State:       data.State,
		Temperature: data.Temperature,
		Status:      data.Status,
		Message:     data.Message,
	})
}

func (c *widgetControllerImpl) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := c.repository.List(r.Context())
	if err != nil {
		c.logger.Error("list preferences failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if prefs == nil {
		prefs = []types.Preference{}
	}
	utils.WriteJSON(w, http.StatusOK, prefs)
}

func (c *widgetControllerImpl) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing preference name")
		return
	}

	var body setPreferenceRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Value) == "" {
		utils.WriteError(w, http.StatusBadRequest, "'value' must not be empty")
		return
	}

	if err := c.repository.Set(r.Context(), name, body.Value); err != nil {
		if errors.Is(err, preferences.ErrEmptyName) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.logger.Error("set preference failed", "name", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	c.logger.Info("preference updated", "name", name)
	utils.WriteJSON(w, http.StatusOK, types.Preference{Name: name, Value: body.Value})
}

func (c *widgetControllerImpl) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing preference name")
		return
	}

	deleted, err := c.repository.Delete(r.Context(), name)
	if err != nil {
		c.logger.Error("delete preference failed", "name", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete preference")
		return
	}
	if !deleted {
		utils.WriteError(w, http.StatusNotFound, "preference not found")
		return
	}
	c.logger.Info("preference deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}
