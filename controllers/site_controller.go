package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
	"github.com/abs-valuers/abs_backend/utils"
)

const maxSectionBody = 64 << 10

type SiteController struct {
	store      *services.ConfigStore
	quotes     *services.QuoteService
	uploadsDir string
	uploadsURL string
}

func NewSiteController(store *services.ConfigStore, quotes *services.QuoteService, uploadsDir, uploadsURL string) *SiteController {
	return &SiteController{store: store, quotes: quotes, uploadsDir: uploadsDir, uploadsURL: uploadsURL}
}

// GetConfig returns the active config with its derived theme and page title
func (sc *SiteController) GetConfig(c echo.Context) error {
	return ok(c, "Site configuration", sc.store.View())
}

func (sc *SiteController) ThemeCSS(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(sc.store.ThemeCSS()))
}

// ContactQR renders the directions link as a QR code
func (sc *SiteController) ContactQR(c echo.Context) error {
	link := sc.store.Current().Contact.GoogleMapsLink
	if link == "" {
		return fail(c, http.StatusNotFound, "No directions link configured")
	}
	png, err := utils.QRCodePNG(link, 300)
	if err != nil {
		c.Logger().Errorf("contact QR: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to generate QR code")
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (sc *SiteController) SubmitQuote(c echo.Context) error {
	var req models.QuoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sc.quotes.Submit(c.Request().Context(), &req); err != nil {
		return respondError(c, err)
	}
	return created(c, "Thank you. We will contact you shortly.", nil)
}

// UpdateSection merges or replaces one config section
func (sc *SiteController) UpdateSection(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSectionBody))
	if err != nil || !json.Valid(raw) {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	cfg, err := sc.store.UpdateConfig(c.Request().Context(), c.Param("section"), raw)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Site configuration updated", cfg)
}

func (sc *SiteController) Reset(c echo.Context) error {
	cfg, err := sc.store.ResetConfig(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Site configuration reset to defaults", cfg)
}

// UploadHeroImage stores a resized hero background and points the hero section at it
func (sc *SiteController) UploadHeroImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Image file is required")
	}
	if err := utils.ValidateImageType(file.Filename); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if file.Size > utils.MaxImageSize {
		return fail(c, http.StatusBadRequest, "Image is too large")
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Failed to read image")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, utils.MaxImageSize+1))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Failed to read image")
	}

	url, err := utils.SaveHeroImage(data, sc.uploadsDir, sc.uploadsURL)
	if err != nil {
		c.Logger().Errorf("hero upload: %v", err)
		return fail(c, http.StatusBadRequest, "Failed to process image")
	}
	patch, _ := json.Marshal(map[string]string{"backgroundImage": url})
	cfg, err := sc.store.UpdateConfig(c.Request().Context(), "hero", patch)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Hero image updated", cfg.Hero)
}
