package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/deklata/deklata/internal/auth"
	"github.com/deklata/deklata/internal/imaging"
	"github.com/deklata/deklata/internal/model"
	"github.com/deklata/deklata/internal/store"
)

// ItemsHandler handles item listing, creation, detail, images and deletion.
type ItemsHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type createItemRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	PickupLocation string `json:"pickup_location"`
}

// List handles GET /api/items. Unauthenticated browsing is allowed; filters
// are category, q (text search) and page.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	filter := store.ItemFilter{
		Status:       model.ItemStatusAvailable,
		CategorySlug: q.Get("category"),
		Query:        q.Get("q"),
		Page:         page,
	}
	if filter.CategorySlug == "all" {
		filter.CategorySlug = ""
	}

	items, total, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"items":       items,
		"total_count": total,
		"page_size":   store.DefaultPageSize,
	})
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	category, err := store.GetCategoryBySlug(r.Context(), h.DB, req.Category)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "unknown category")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req.Name, req.Description, category.ID, req.PickupLocation)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}: the item plus its image metadata.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	images, err := store.ListItemImages(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if images == nil {
		images = []model.ItemImage{}
	}

	// The detail page is public, but a logged-in caller also gets their own
	// active request on the item so the client can show "requested" state.
	var myRequest *model.Request
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if claims, err := auth.ValidateToken(h.JWTSecret, strings.TrimPrefix(header, "Bearer ")); err == nil {
			myRequest, _ = store.GetActiveRequest(r.Context(), h.DB, id, claims.UserID)
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":       item,
		"images":     images,
		"my_request": myRequest,
	})
}

// Delete handles DELETE /api/items/{id}. Owner-only; cascades to images and
// requests.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles POST /api/items/{id}/images.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := store.AddItemImage(r.Context(), h.DB, id, claims.UserID, processed.Data, processed.MIME)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, img)
}

// GetImage handles GET /api/images/{id}.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("writing image response", "image", id, "error", err)
	}
}
