package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := storeErr("list", "photos/", ErrTransport, cause)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "list photos/")
	assert.True(t, IsRetryable(err))
}

func TestStoreError_BucketLevelMessage(t *testing.T) {
	err := storeErr("head bucket", "", ErrNotFound, nil)
	assert.Equal(t, "head bucket bucket: not found", err.Error())
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrValidation, Kind(&ValidationError{Field: "key", Reason: "is required"}))
	assert.Equal(t, ErrAuth, Kind(storeErr("put", "k", ErrAuth, nil)))
	assert.Equal(t, ErrNotFound, Kind(storeErr("head", "k", ErrNotFound, nil)))
	assert.Nil(t, Kind(errors.New("boom")))
	assert.Nil(t, Kind(storeErr("put", "k", nil, errors.New("odd"))))
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "region is required", (&ValidationError{Field: "region", Reason: "is required"}).Error())
	assert.Equal(t, "folder name is required", (&ValidationError{Reason: "folder name is required"}).Error())
}
