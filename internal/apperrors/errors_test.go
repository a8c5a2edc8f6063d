package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrDependency, http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestHTTPStatusUnwrapsChains(t *testing.T) {
	err := fmt.Errorf("request already accepted: %w", ErrConflict)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}
