package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusbooks/marketplace/internal/models"
)

func TestSlugify(t *testing.T) {
	require.Equal(t, "calculus-made-easy-3rd-ed", Slugify("Calculus Made Easy (3rd Ed.)"))
	require.Equal(t, "a-b", Slugify("  A   b  "))
	require.NotEmpty(t, Slugify("!!!"))
}

func TestParseSpecs(t *testing.T) {
	specs := ParseSpecs("Edition: 3rd\nCondition: Good, Authors: Someone")
	require.Equal(t, []string{"Edition: 3rd", "Condition: Good", "Authors: Someone"}, specs)
	require.Empty(t, ParseSpecs(""))
}

func TestCreateProductGeneratesUniqueSlug(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	owner := createUser(t, db, "seller", "password", "user")

	payload := map[string]interface{}{
		"name":             "Calculus Made Easy",
		"price":            29.50,
		"shortDescription": "short",
		"description":      "long",
		"headline":         "headline",
		"image":            "https://example.com/calc.jpg",
		"specs":            "Edition: 3rd",
	}

	c, rec := newJSONContext(t, http.MethodPost, "/api/products", payload)
	asUser(c, owner.ID, "user")
	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, _ = newJSONContext(t, http.MethodPost, "/api/products", payload)
	asUser(c, owner.ID, "user")
	require.NoError(t, h.CreateProduct(c))

	var slugs []string
	require.NoError(t, db.Model(&models.Product{}).Order("id").Pluck("slug", &slugs).Error)
	require.Equal(t, []string{"calculus-made-easy", "calculus-made-easy-1"}, slugs)
}

func TestCreateProductValidation(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	owner := createUser(t, db, "seller", "password", "user")

	c, _ := newJSONContext(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":  "No price",
		"price": -3,
	})
	asUser(c, owner.ID, "user")
	he := httpError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetProduct(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	createProduct(t, db, "python-workshop", 25.75, nil)

	c, rec := newJSONContext(t, http.MethodGet, "/api/products/python-workshop", nil)
	c.SetParamNames("slug")
	c.SetParamValues("python-workshop")
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "python-workshop", resp.Product.Slug)

	c, _ = newJSONContext(t, http.MethodGet, "/api/products/unknown", nil)
	c.SetParamNames("slug")
	c.SetParamValues("unknown")
	he := httpError(t, h.GetProduct(c))
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestGetProductsSortedByName(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	createProduct(t, db, "zebra-book", 10, nil)
	createProduct(t, db, "alpha-book", 10, nil)

	c, rec := newJSONContext(t, http.MethodGet, "/api/products", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 2)
	require.Equal(t, "alpha-book", resp.Products[0].Slug)
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	owner := createUser(t, db, "seller", "password", "user")
	other := createUser(t, db, "intruder", "password", "user")
	createProduct(t, db, "calc-made-easy", 29.50, &owner.ID)

	payload := map[string]interface{}{
		"name":             "Calculus Made Easy",
		"price":            35.00,
		"shortDescription": "updated",
		"description":      "updated",
		"headline":         "updated",
		"image":            "https://example.com/calc.jpg",
	}

	c, _ := newJSONContext(t, http.MethodPut, "/api/products/calc-made-easy", payload)
	c.SetParamNames("slug")
	c.SetParamValues("calc-made-easy")
	asUser(c, other.ID, "user")
	he := httpError(t, h.UpdateProduct(c))
	require.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newJSONContext(t, http.MethodPut, "/api/products/calc-made-easy", payload)
	c.SetParamNames("slug")
	c.SetParamValues("calc-made-easy")
	asUser(c, owner.ID, "user")
	require.NoError(t, h.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var prod models.Product
	require.NoError(t, db.Where("slug = ?", "calc-made-easy").First(&prod).Error)
	require.Equal(t, 35.00, prod.Price)
}

func TestAdminCanUpdateAnyProduct(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	owner := createUser(t, db, "seller", "password", "user")
	admin := createUser(t, db, "admin", "password", "admin")
	createProduct(t, db, "calc-made-easy", 29.50, &owner.ID)

	c, rec := newJSONContext(t, http.MethodPut, "/api/products/calc-made-easy", map[string]interface{}{
		"name":             "Calculus Made Easy",
		"price":            20.00,
		"shortDescription": "short",
		"description":      "long",
		"headline":         "headline",
		"image":            "https://example.com/calc.jpg",
	})
	c.SetParamNames("slug")
	c.SetParamValues("calc-made-easy")
	asUser(c, admin.ID, "admin")
	require.NoError(t, h.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteProductPurgesCarts(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db}
	owner := createUser(t, db, "seller", "password", "user")
	prod := createProduct(t, db, "calc-made-easy", 29.50, &owner.ID)

	require.NoError(t, db.Create(&models.CartItem{
		UserID: 42, ProductSlug: prod.Slug, Name: prod.Name, Price: prod.Price, Quantity: 1,
	}).Error)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/products/calc-made-easy", nil)
	c.SetParamNames("slug")
	c.SetParamValues("calc-made-easy")
	asUser(c, owner.ID, "user")
	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var products, cartItems int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Count(&cartItems).Error)
	require.Zero(t, products)
	require.Zero(t, cartItems)
}
