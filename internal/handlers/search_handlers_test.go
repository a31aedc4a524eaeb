package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"

	"github.com/campusbooks/marketplace/internal/models"
)

func TestSearchRequiresQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	h := SearchHandler{ES: client, Index: "product"}
	c, _ := newJSONContext(t, http.MethodGet, "/api/search", nil)
	he := httpError(t, h.Search(c))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestSearchWithoutCluster(t *testing.T) {
	h := SearchHandler{Index: "product"}
	c, _ := newJSONContext(t, http.MethodGet, "/api/search?q=calculus", nil)
	he := httpError(t, h.Search(c))
	require.Equal(t, http.StatusServiceUnavailable, he.Code)
}

func TestSearchReturnsProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"hits": {
				"total": {"value": 1},
				"hits": [{"_source": {"id": "calc-made-easy", "name": "Calculus Made Easy", "price": 29.50}}]
			}
		}`)
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	h := SearchHandler{ES: client, Index: "product"}
	c, rec := newJSONContext(t, http.MethodGet, "/api/search?q=calculus", nil)
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total    int64            `json:"total"`
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Products, 1)
	require.Equal(t, "calc-made-easy", resp.Products[0].Slug)
}
