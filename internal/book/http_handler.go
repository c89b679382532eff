package book

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type BookResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Cover        string    `json:"cover"`
	CoverDisplay string    `json:"cover_display"`
	Inventory    int       `json:"inventory"`
	DailyFee     string    `json:"daily_fee"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toResponse(b Book) BookResponse {
	return BookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Cover:        b.Cover,
		CoverDisplay: CoverLabel(b.Cover),
		Inventory:    b.Inventory,
		DailyFee:     b.DailyFee.StringFixed(2),
		Available:    b.Available(),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

type bookReq struct {
	Title     string           `json:"title" validate:"required,max=255"`
	Author    string           `json:"author" validate:"required,max=255"`
	Cover     string           `json:"cover" validate:"required,oneof=HARD SOFT"`
	Inventory *int             `json:"inventory" validate:"required,gte=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee" validate:"required"`
}

func (req *bookReq) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Cover = strings.ToUpper(strings.TrimSpace(req.Cover))
}

func (req bookReq) input() Input {
	return Input{
		Title:     req.Title,
		Author:    req.Author,
		Cover:     req.Cover,
		Inventory: *req.Inventory,
		DailyFee:  *req.DailyFee,
	}
}

type patchReq struct {
	Title     *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Author    *string          `json:"author" validate:"omitempty,min=1,max=255"`
	Cover     *string          `json:"cover" validate:"omitempty,oneof=HARD SOFT"`
	Inventory *int             `json:"inventory" validate:"omitempty,gte=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee"`
}

func (req *patchReq) normalize() {
	if req.Title != nil {
		v := strings.TrimSpace(*req.Title)
		req.Title = &v
	}
	if req.Author != nil {
		v := strings.TrimSpace(*req.Author)
		req.Author = &v
	}
	if req.Cover != nil {
		v := strings.ToUpper(strings.TrimSpace(*req.Cover))
		req.Cover = &v
	}
}

type importReq struct {
	ISBN      string           `json:"isbn" validate:"required,isbn"`
	Cover     string           `json:"cover" validate:"required,oneof=HARD SOFT"`
	Inventory *int             `json:"inventory" validate:"required,gte=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee" validate:"required"`
}

// pathID parses {id}; anything that is not a positive integer cannot name a book.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func feeDetail() []httpx.ErrorDetail {
	return []httpx.ErrorDetail{{Field: "daily_fee", Message: ErrInvalidFee.Error()}}
}

// QueryFrom reads list filters from the URL. Unknown sort keys fall back to id.
func QueryFrom(r *http.Request) (Query, []httpx.ErrorDetail) {
	values := r.URL.Query()
	page := httpx.PageFrom(r)

	q := Query{
		Q:         strings.TrimSpace(values.Get("q")),
		Cover:     strings.ToUpper(strings.TrimSpace(values.Get("cover"))),
		Available: strings.EqualFold(values.Get("available"), "true"),
		Sort:      values.Get("sort"),
		Desc:      strings.EqualFold(values.Get("desc"), "true"),
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	}
	if q.Cover != "" && q.Cover != CoverHard && q.Cover != CoverSoft {
		return q, []httpx.ErrorDetail{{Field: "cover", Message: "cover must be one of: HARD, SOFT"}}
	}
	return q, nil
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(w, r, "Book not found")
	case errors.Is(err, ErrInvalidFee):
		httpx.ValidationFailed(w, r, feeDetail())
	case errors.Is(err, ErrInvalidBook):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Book data is out of range", nil)
	case errors.Is(err, ErrHasBorrowings):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Book has borrowing records and cannot be deleted", nil)
	case errors.Is(err, ErrISBNNotFound):
		httpx.NotFound(w, r, "No book found for this ISBN")
	case errors.Is(err, ErrCatalogUnavailable):
		httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "Book lookup failed", nil)
	default:
		httpx.InternalError(w, r)
	}
}

// List handles GET /v1/books
// @Summary List books
// @Description Paginated book list with search, cover and availability filters
// @Tags books
// @Produce json
// @Param q query string false "Title or author contains"
// @Param cover query string false "HARD or SOFT"
// @Param available query bool false "Only books with copies left"
// @Param sort query string false "title, author, daily_fee, inventory or id"
// @Param desc query bool false "Descending order"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q, details := QueryFrom(r)
	if len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	books, total, err := h.service.List(r.Context(), q)
	if err != nil {
		httpx.InternalError(w, r)
		return
	}

	items := make([]BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toResponse(b))
	}
	httpx.JSONSuccess(w, r, items, httpx.PageFrom(r).Meta(total))
}

// Get handles GET /v1/books/{id}
// @Summary Get book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Book not found")
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, toResponse(b), nil)
}

// Create handles POST /v1/books
// @Summary Create book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookReq true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	req.normalize()
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	b, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, toResponse(b))
}

// Update handles PUT /v1/books/{id}
// @Summary Replace book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Param request body bookReq true "Book"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Book not found")
		return
	}

	var req bookReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	req.normalize()
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	b, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, toResponse(b), nil)
}

// Patch handles PATCH /v1/books/{id}
// @Summary Partially update book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Param request body patchReq true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [patch]
func (h *HTTPHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Book not found")
		return
	}

	var req patchReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	req.normalize()
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	b, err := h.service.Patch(r.Context(), id, Patch{
		Title:     req.Title,
		Author:    req.Author,
		Cover:     req.Cover,
		Inventory: req.Inventory,
		DailyFee:  req.DailyFee,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, toResponse(b), nil)
}

// Delete handles DELETE /v1/books/{id}
// @Summary Delete book
// @Tags books
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 204 "No Content"
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Book not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// Import handles POST /v1/books/import
// @Summary Import book by ISBN
// @Description Create a book with title and author looked up on Open Library
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body importReq true "Import request"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /books/import [post]
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	req.Cover = strings.ToUpper(strings.TrimSpace(req.Cover))
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	b, err := h.service.Import(r.Context(), ImportInput{
		ISBN:      httpx.NormalizeISBN(req.ISBN),
		Cover:     req.Cover,
		Inventory: *req.Inventory,
		DailyFee:  *req.DailyFee,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, toResponse(b))
}
