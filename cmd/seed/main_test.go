package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

func TestCountInsert(t *testing.T) {
	var created, skipped int
	require.NoError(t, countInsert(nil, &created, &skipped))
	require.NoError(t, countInsert(domain.ErrDuplicate, &created, &skipped))
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, skipped)
	assert.Error(t, countInsert(assert.AnError, &created, &skipped))
}
