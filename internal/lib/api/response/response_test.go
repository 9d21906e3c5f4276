package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"CrewChat/entity"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{entity.NotFoundError("conversation %s", "x"), http.StatusNotFound},
		{entity.ValidationError("bad input"), http.StatusBadRequest},
		{entity.ErrFileTooLarge, http.StatusBadRequest},
		{entity.PermissionError("nope"), http.StatusForbidden},
		{entity.ConflictError("already there"), http.StatusConflict},
		{entity.TransientError("later"), http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), "error: %v", tc.err)
	}
}
