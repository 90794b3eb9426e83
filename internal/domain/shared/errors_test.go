package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Room 401 not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))

	wrapped := fmt.Errorf("load room: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var domainErr *DomainError
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, "Room 401 not found", domainErr.Message)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 45, 1, 20)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestFilter_Offset(t *testing.T) {
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{}.Offset())
}
