package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/cover"
	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/listing"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/service/token"
)

// GenerateHandler builds a complete listing from a few facts about the
// book: the model drafts the copy, the cover resolver finds an image.
type GenerateHandler struct {
	DB       *gorm.DB
	LLM      llms.Model
	Covers   *cover.Resolver
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *GenerateHandler) Generate(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title     string  `json:"title"`
		Edition   string  `json:"edition"`
		Price     float64 `json:"price"`
		Condition string  `json:"condition"`
		Authors   string  `json:"authors"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Edition == "" || req.Price == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "title, edition, and price are required")
	}
	if req.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be a positive number")
	}

	in := listing.Input{
		Title:     req.Title,
		Edition:   req.Edition,
		Price:     req.Price,
		Condition: req.Condition,
		Authors:   req.Authors,
	}

	ctx := c.Request().Context()

	ai, err := listing.Generate(ctx, h.LLM, in)
	if err != nil {
		c.Logger().Errorf("listing generation error: %v", err)
		ai = listing.Fallback(in)
	}

	resolved := h.Covers.Resolve(ctx, req.Title, req.Edition, req.Authors,
		ai.Image, listing.NormalizeISBN(ai.ISBN))

	authors := cover.Pick(req.Authors, resolved.Authors, ai.Authors)

	specs := make([]string, 0, len(ai.Specs)+4)
	if resolved.ISBN != "" {
		specs = append(specs, "ISBN: "+resolved.ISBN)
	}
	if authors != "" {
		specs = append(specs, "Authors: "+authors)
	}
	if req.Condition != "" {
		specs = append(specs, "Condition: "+req.Condition)
	}
	specs = append(specs, "Edition: "+req.Edition)
	for _, s := range ai.Specs {
		if s != "" {
			specs = append(specs, s)
		}
	}

	description := listing.Truncate(ai.Description, 600)
	if description == "" {
		description = listing.Fallback(in).Description
	}
	description = listing.EnsureCourseHint(description, req.Title, resolved.ISBN)

	shortDescription := listing.Truncate(ai.ShortDescription, 200)
	if shortDescription == "" {
		shortDescription = req.Title + " " + req.Edition + " edition textbook."
	}
	headline := listing.Truncate(ai.Headline, 90)
	if headline == "" {
		headline = req.Title + " " + req.Edition + " edition for your course"
	}

	slug, err := uniqueSlugForName(h.DB, req.Title+" ("+req.Edition+")")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prod := models.Product{
		Slug:             slug,
		Name:             req.Title + " (" + req.Edition + ")",
		Price:            req.Price,
		ShortDescription: shortDescription,
		Description:      description,
		Headline:         headline,
		Specs:            specs,
		Image:            resolved.Image,
		OwnerID:          &userID,
		Status:           models.ProductAvailable,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ph := ProductHandler{DB: h.DB, Producer: h.Producer, ES: h.ES, Index: h.Index}
	ph.index(c, &prod)
	ph.publish(c, userID, map[string]interface{}{
		"type":      "product_generated",
		"productID": prod.Slug,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "product": prod})
}
