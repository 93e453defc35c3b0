package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: no session", services.ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("%w: not the addressee", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: post", services.ErrNotFound), http.StatusNotFound},
		{services.ErrEmptyPost, http.StatusBadRequest},
		{fmt.Errorf("%w: friendship already exists", services.ErrConflict), http.StatusConflict},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		var he *echo.HTTPError
		require.ErrorAs(t, mapError(tc.err), &he)
		assert.Equal(t, tc.code, he.Code, tc.err.Error())
	}
}

func TestMapErrorHidesInternalDetails(t *testing.T) {
	var he *echo.HTTPError
	require.ErrorAs(t, mapError(errors.New("pq: password authentication failed")), &he)
	assert.Equal(t, "Internal server error", he.Message)
	assert.EqualError(t, he.Internal, "pq: password authentication failed")
}
