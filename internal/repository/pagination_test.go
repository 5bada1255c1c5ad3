package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationDefaults(t *testing.T) {
	p := Pagination{}
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, 0, p.Offset())
}

func TestPaginationCap(t *testing.T) {
	p := Pagination{Page: 3, Size: 500}
	assert.Equal(t, 100, p.Limit())
	assert.Equal(t, 200, p.Offset())
}

func TestPaginationOffset(t *testing.T) {
	p := Pagination{Page: 2, Size: 10}
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 10, p.Offset())
}
