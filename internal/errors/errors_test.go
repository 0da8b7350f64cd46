package errors_test

import (
	"errors"
	"testing"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestMark(t *testing.T) {
	cause := errors.New("status 401")
	err := apperrors.Mark(cause, apperrors.ErrRefreshRejected, "[Refresh]")

	require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "[Refresh] refresh token rejected: status 401", err.Error())
	require.NoError(t, apperrors.Mark(nil, apperrors.ErrRefreshRejected, "[Refresh]"))
}
