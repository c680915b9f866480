package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	denied := fmt.Errorf("check table: %w", ErrAccessDenied("user %q lacks SELECT", "bob"))
	assert.True(t, IsAccessDenied(denied))
	assert.False(t, IsCanceled(denied))
	assert.Contains(t, denied.Error(), `user "bob" lacks SELECT`)

	canceled := fmt.Errorf("run: %w", &CanceledError{JobGroup: "s1"})
	assert.True(t, IsCanceled(canceled))
	assert.False(t, IsAccessDenied(canceled))

	assert.False(t, IsAccessDenied(errors.New("plain")))
	assert.False(t, IsCanceled(nil))
}

func TestCoordinatorErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	rejected := &CoordinatorRejectedError{Message: "duplicate"}
	assert.False(t, errors.Is(rejected, ErrCoordinatorTimeout))

	wrapped := fmt.Errorf("register: %w", ErrCoordinatorTimeout)
	assert.ErrorIs(t, wrapped, ErrCoordinatorTimeout)

	var asRejected *CoordinatorRejectedError
	assert.False(t, errors.As(wrapped, &asRejected))
}

func TestSchemaJSON(t *testing.T) {
	t.Parallel()

	s := Schema{{Name: "id", Type: "INTEGER"}}
	assert.JSONEq(t, `[{"name":"id","type":"INTEGER"}]`, s.JSON())
	assert.Equal(t, "[]", Schema(nil).JSON())
}
