package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

func TestMongoBlobStore_InvalidURI(t *testing.T) {
	ctx := context.Background()

	_, err := NewMongoBlobStore(ctx, "", "credproxy", "blobs")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewMongoBlobStore(ctx, "not-a-mongo-uri", "credproxy", "blobs")
	assert.Error(t, err)
}
