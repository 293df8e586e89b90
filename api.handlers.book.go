package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	msgBookAdded    = "book added successfully"
	msgBookUpdated  = "book updated successfully"
	msgBookDeleted  = "book deleted successfully"
	msgBookNotFound = "book not found"
	msgIDNotFound   = "id not found"
	msgAddFailed    = "failed to add book"
	msgListFailed   = "failed to list books"
	msgUpdateFailed = "failed to update book"
	msgDeleteFailed = "failed to delete book"
	msgGetFailed    = "failed to get book"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := WriteJSON(w, http.StatusOK,
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Bookshelf api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// respond writes the envelope and logs any sending failure.
func (api *APIHandler) respond(w http.ResponseWriter, r *http.Request, code int, resp *APIResponse) {
	if err := WriteResponse(r.Context(), w, code, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Int("response.code", code), zap.Error(err))
	}
}

// AddBook handles POST /books.
//
//	@Summary	Add a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookPayload	true	"book to add"
//	@Success	201		{object}	APIResponse
//	@Failure	400		{object}	APIResponse
//	@Failure	500		{object}	APIResponse
//	@Router		/books [post]
func (api *APIHandler) AddBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	var payload BookPayload
	if err := DecodeBookRequestBody(r, &payload); err != nil {
		logger.Error("failed to add book", zap.Error(err))
		api.respond(w, r, http.StatusBadRequest, FailResponse(errInvalidPayload.Error()))
		return
	}

	if err := ValidateAddBookPayload(&payload); err != nil {
		logger.Info("invalid book to add", zap.Error(err))
		api.respond(w, r, http.StatusBadRequest, FailResponse(err.Error()))
		return
	}

	id, err := api.bookService.Add(r.Context(), payload.ToBook())
	if err != nil {
		logger.Error("failed to add book", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse(msgAddFailed))
		return
	}

	logger.Info("success to add book", zap.String("book.id", id))
	api.respond(w, r, http.StatusCreated, SuccessResponse(msgBookAdded, map[string]string{"bookId": id}))
}

// ListBooks handles GET /books. At most one of the name, reading or finished
// filters is applied, checked in that order.
//
//	@Summary	List books
//	@Tags		books
//	@Produce	json
//	@Param		name		query		string	false	"case-insensitive part of the name"
//	@Param		reading		query		string	false	"0 or 1"
//	@Param		finished	query		string	false	"0 or 1"
//	@Success	200			{object}	APIResponse
//	@Router		/books [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.List(r.Context(), ParseBookFilter(r))
	if err != nil {
		logger.Error("failed to list books", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse(msgListFailed))
		return
	}
	logger.Info("success to list books", zap.Int("books.count", len(books)))
	api.respond(w, r, http.StatusOK, SuccessResponse("", map[string]interface{}{"books": books}))
}

// GetBook handles GET /books/:bookId.
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		bookId	path		string	true	"book id"
//	@Success	200		{object}	APIResponse
//	@Failure	404		{object}	APIResponse
//	@Router		/books/{bookId} [get]
func (api *APIHandler) GetBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("bookId")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist")
		api.respond(w, r, http.StatusNotFound, FailResponse(msgBookNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to get book", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse(msgGetFailed))
		return
	}
	logger.Info("success to get book")
	api.respond(w, r, http.StatusOK, SuccessResponse("", map[string]interface{}{"book": book}))
}

// UpdateBook handles PUT /books/:bookId. The payload is validated before
// looking for the book.
//
//	@Summary	Update a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		bookId	path		string		true	"book id"
//	@Param		book	body		BookPayload	true	"new book content"
//	@Success	200		{object}	APIResponse
//	@Failure	400		{object}	APIResponse
//	@Failure	404		{object}	APIResponse
//	@Router		/books/{bookId} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("bookId")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	var payload BookPayload
	if err := DecodeBookRequestBody(r, &payload); err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.respond(w, r, http.StatusBadRequest, FailResponse(errInvalidPayload.Error()))
		return
	}

	if err := ValidateUpdateBookPayload(&payload); err != nil {
		logger.Info("invalid book update", zap.Error(err))
		api.respond(w, r, http.StatusBadRequest, FailResponse(err.Error()))
		return
	}

	_, err := api.bookService.Update(r.Context(), id, payload.ToBook())
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book to update does not exist")
		api.respond(w, r, http.StatusNotFound, FailResponse(msgIDNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse(msgUpdateFailed))
		return
	}
	logger.Info("success to update book")
	api.respond(w, r, http.StatusOK, SuccessResponse(msgBookUpdated, nil))
}

// DeleteBook handles DELETE /books/:bookId.
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		bookId	path		string	true	"book id"
//	@Success	200		{object}	APIResponse
//	@Failure	404		{object}	APIResponse
//	@Router		/books/{bookId} [delete]
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("bookId")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	err := api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book to delete does not exist")
		api.respond(w, r, http.StatusNotFound, FailResponse(msgIDNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailResponse(msgDeleteFailed))
		return
	}
	logger.Info("success to delete book")
	api.respond(w, r, http.StatusOK, SuccessResponse(msgBookDeleted, nil))
}
