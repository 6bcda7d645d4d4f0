package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezoic/stratx/core/model"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := model.NewStateManager()
	assert.False(t, s.IsFitted())
	assert.Equal(t, "not_fitted", s.State().String())

	s.SetDimensions(4, 100)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	assert.Equal(t, 4, s.NFeatures())
	assert.Equal(t, 100, s.NSamples())
	assert.Equal(t, "fitted", s.State().String())

	s.Reset()
	assert.False(t, s.IsFitted())
	assert.Equal(t, 0, s.NFeatures())
}
