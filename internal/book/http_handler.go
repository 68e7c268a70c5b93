package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookshelf/internal/httpx"
)

const (
	msgNotFound     = "Book not found"
	msgRequired     = "Title and author are required"
	msgInvalidBody  = "Invalid request body"
	msgBodyTooLarge = "Request body too large"
	msgReadFailed   = "Error reading books data"
	msgCreateFailed = "Error adding book"
	msgUpdateFailed = "Error updating book"
	msgDeleteFailed = "Error deleting book"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("GET /books/{$}", h.List)
	mux.HandleFunc("POST /books/{$}", h.Create)
	mux.HandleFunc("GET /books/{id}", h.Get)
	mux.HandleFunc("PUT /books/{id}", h.Update)
	mux.HandleFunc("DELETE /books/{id}", h.Delete)
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		h.internalError(w, r, msgReadFailed, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			notFound(w, r)
			return
		}
		h.internalError(w, r, msgReadFailed, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		if h.clientError(w, r, err) {
			return
		}
		h.internalError(w, r, msgCreateFailed, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// Update handles PUT /books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	// Input is checked before the id so a bad body is a 400 even for an
	// unknown book, as with Create.
	if err := in.Validate(); err != nil {
		h.clientError(w, r, err)
		return
	}

	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if h.clientError(w, r, err) {
			return
		}
		h.internalError(w, r, msgUpdateFailed, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			notFound(w, r)
			return
		}
		h.internalError(w, r, msgDeleteFailed, err)
		return
	}
	httpx.JSONNoContent(w)
}

// pathID parses the {id} segment. A non-numeric id cannot match any stored
// book, so callers answer 404 for it.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		if errors.Is(err, httpx.ErrBodyTooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, httpx.CodePayloadTooLarge, msgBodyTooLarge, nil)
			return Input{}, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, msgInvalidBody, nil)
		return Input{}, false
	}
	return in, true
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, msgNotFound, nil)
}

// clientError writes the 400/404 response for err and reports whether it did.
func (h *HTTPHandler) clientError(w http.ResponseWriter, r *http.Request, err error) bool {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]httpx.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, msgRequired, details)
		return true
	case errors.Is(err, ErrNotFound):
		notFound(w, r)
		return true
	}
	return false
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.ErrorContext(r.Context(), message,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFrom(r),
		"error", err,
	)
	httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, message, nil)
}
