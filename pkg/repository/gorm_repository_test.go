package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk([]int64{}, 3))
	assert.Equal(t, [][]int64{{1, 2}}, Chunk([]int64{1, 2}, 3))
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, Chunk([]int64{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int64{{1, 2, 3}}, Chunk([]int64{1, 2, 3}, 0))
}
