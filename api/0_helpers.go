package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/latestat/api/apiv1"
	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/flatdeque"
	"github.com/fulldump/latestat/latestat"
	"github.com/fulldump/latestat/service"
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

var badRequests = []error{
	apiv1.ErrBadRequest,
	service.ErrEntityPathRequired,
	service.ErrTimelineRequired,
	service.ErrComponentRequired,
	chunk.ErrMalformedChunk,
	chunk.ErrTypeMismatch,
	flatdeque.ErrOutOfBounds,
}

// describe maps an error to its status code and a human description.
func describe(ctx context.Context, err error) (int, string) {

	if errors.Is(err, box.ErrResourceNotFound) {
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	}

	if errors.Is(err, box.ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	}

	if errors.Is(err, latestat.ErrPrimaryComponentNotFound) {
		return http.StatusNotFound, "component not found"
	}

	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	if errors.As(err, &syntaxError) || errors.As(err, &typeError) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	for _, target := range badRequests {
		if errors.Is(err, target) {
			return http.StatusBadRequest, "Invalid request"
		}
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := describe(ctx, err)
		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}
