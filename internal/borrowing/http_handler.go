package borrowing

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
	"libraryapi/internal/user"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type BorrowingResponse struct {
	ID                 int64   `json:"id"`
	User               string  `json:"user"`
	Book               int64   `json:"book"`
	BorrowDate         string  `json:"borrow_date"`
	ExpectedReturnDate string  `json:"expected_return_date"`
	ActualReturnDate   *string `json:"actual_return_date"`
	IsActive           bool    `json:"is_active"`
	IsOverdue          bool    `json:"is_overdue"`
}

func (h *HTTPHandler) toResponse(b Borrowing) BorrowingResponse {
	resp := BorrowingResponse{
		ID:                 b.ID,
		User:               b.UserID,
		Book:               b.BookID,
		BorrowDate:         b.BorrowDate.Format(DateLayout),
		ExpectedReturnDate: b.ExpectedReturnDate.Format(DateLayout),
		IsActive:           b.Active(),
		IsOverdue:          b.Overdue(h.service.Today()),
	}
	if b.ActualReturnDate != nil {
		d := b.ActualReturnDate.Format(DateLayout)
		resp.ActualReturnDate = &d
	}
	return resp
}

type createReq struct {
	Book               int64  `json:"book" validate:"required,gt=0"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"required,datetime=2006-01-02"`
}

type returnReq struct {
	ActualReturnDate string `json:"actual_return_date" validate:"omitempty,datetime=2006-01-02"`
}

func viewerFrom(r *http.Request) (Viewer, bool) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		return Viewer{}, false
	}
	return Viewer{UserID: userID, Staff: httpx.RoleFrom(r) == user.RoleStaff}, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// FilterFrom reads list filters. is_active only understands true/false; any
// other value leaves the list unfiltered.
func FilterFrom(r *http.Request) (Filter, []httpx.ErrorDetail) {
	values := r.URL.Query()
	page := httpx.PageFrom(r)
	f := Filter{Limit: page.Limit(), Offset: page.Offset()}
	var details []httpx.ErrorDetail

	if userID := strings.TrimSpace(values.Get("user_id")); userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			details = append(details, httpx.ErrorDetail{Field: "user_id", Message: "user_id must be a valid UUID"})
		}
		f.UserID = userID
	}

	if raw := strings.TrimSpace(values.Get("book_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			details = append(details, httpx.ErrorDetail{Field: "book_id", Message: "book_id must be a positive integer"})
		}
		f.BookID = id
	}

	switch strings.ToLower(values.Get("is_active")) {
	case "true":
		active := true
		f.Active = &active
	case "false":
		active := false
		f.Active = &active
	}

	return f, details
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(w, r, "Borrowing not found")
	case errors.Is(err, ErrBookNotFound):
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "book", Message: "book does not exist"}})
	case errors.Is(err, book.ErrNoCopiesAvailable):
		httpx.JSONError(w, r, http.StatusBadRequest, "NO_COPIES_AVAILABLE", "There are no copies of this book available", nil)
	case errors.Is(err, ErrInvalidExpectedReturnDate):
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "expected_return_date", Message: "expected_return_date cannot be in the past"}})
	case errors.Is(err, ErrAlreadyReturned):
		httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_RETURNED", "This book has already been returned.", nil)
	case errors.Is(err, ErrInvalidReturnDate):
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "actual_return_date", Message: "actual_return_date cannot be before borrow_date"}})
	default:
		httpx.InternalError(w, r)
	}
}

// List handles GET /v1/borrowings
// @Summary List borrowings
// @Description Staff see every borrowing, other users only their own
// @Tags borrowings
// @Produce json
// @Security Bearer
// @Param user_id query string false "Filter by user ID"
// @Param book_id query int false "Filter by book ID"
// @Param is_active query string false "true or false"
// @Param overdue query bool false "Only active borrowings past their expected return date"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /borrowings [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFrom(r)
	if !ok {
		httpx.Unauthorized(w, r)
		return
	}

	f, details := FilterFrom(r)
	if len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("overdue"), "true") {
		today := h.service.Today()
		f.OverdueBefore = &today
	}

	items, total, err := h.service.List(r.Context(), viewer, f)
	if err != nil {
		httpx.InternalError(w, r)
		return
	}

	out := make([]BorrowingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, h.toResponse(b))
	}
	httpx.JSONSuccess(w, r, out, httpx.PageFrom(r).Meta(total))
}

// Create handles POST /v1/borrowings
// @Summary Borrow a book
// @Description Takes one copy of the book for the current user. borrow_date is today; expected_return_date must be today or later, otherwise 400 VALIDATION_ERROR
// @Tags borrowings
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createReq true "Borrowing"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /borrowings [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFrom(r)
	if !ok {
		httpx.Unauthorized(w, r)
		return
	}

	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}
	expected, err := ParseDate(req.ExpectedReturnDate)
	if err != nil {
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "expected_return_date", Message: err.Error()}})
		return
	}

	b, err := h.service.Borrow(r.Context(), viewer, req.Book, expected)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, h.toResponse(b))
}

// Get handles GET /v1/borrowings/{id}
// @Summary Get borrowing
// @Tags borrowings
// @Produce json
// @Security Bearer
// @Param id path int true "Borrowing ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /borrowings/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFrom(r)
	if !ok {
		httpx.Unauthorized(w, r)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Borrowing not found")
		return
	}

	b, err := h.service.Get(r.Context(), viewer, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, h.toResponse(b), nil)
}

// Return handles PUT and PATCH /v1/borrowings/{id}/return
// @Summary Return a borrowed book
// @Description Sets the actual return date (default today) and puts the copy back
// @Tags borrowings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Borrowing ID"
// @Param request body returnReq false "Return date"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /borrowings/{id}/return [put]
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFrom(r)
	if !ok {
		httpx.Unauthorized(w, r)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.NotFound(w, r, "Borrowing not found")
		return
	}

	var req returnReq
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.BadRequest(w, r, "Invalid request body")
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	var actual *time.Time
	if req.ActualReturnDate != "" {
		d, err := ParseDate(req.ActualReturnDate)
		if err != nil {
			httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "actual_return_date", Message: err.Error()}})
			return
		}
		actual = &d
	}

	b, err := h.service.Return(r.Context(), viewer, id, actual)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, h.toResponse(b), nil)
}
