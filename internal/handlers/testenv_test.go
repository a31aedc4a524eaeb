package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/config"
	"github.com/campusbooks/marketplace/internal/hash"
	"github.com/campusbooks/marketplace/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newJSONContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func createUser(t *testing.T, db *gorm.DB, username, password, role string) *models.User {
	t.Helper()

	passwordHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{Username: username, PasswordHash: passwordHash, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createProduct(t *testing.T, db *gorm.DB, slug string, price float64, ownerID *uint) *models.Product {
	t.Helper()

	prod := models.Product{
		Slug:             slug,
		Name:             slug,
		Price:            price,
		ShortDescription: gofakeit.Sentence(8),
		Description:      gofakeit.Paragraph(1, 3, 10, " "),
		Headline:         gofakeit.Sentence(5),
		Image:            "https://example.com/" + slug + ".jpg",
		OwnerID:          ownerID,
		Status:           models.ProductAvailable,
	}
	require.NoError(t, db.Create(&prod).Error)
	return &prod
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he
}
