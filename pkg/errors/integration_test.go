package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stratxErrors "github.com/ezoic/stratx/pkg/errors"
)

func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := stratxErrors.NewNotFittedError("RandomForestRegressor", "Apply")
	wrappedErr := fmt.Errorf("partition step failed: %w", originalErr)

	assert.True(t, errors.Is(wrappedErr, originalErr))
	assert.True(t, errors.Is(wrappedErr, stratxErrors.ErrNotFitted))

	var notFittedErr *stratxErrors.NotFittedError
	require.True(t, errors.As(wrappedErr, &notFittedErr))
	assert.Equal(t, "RandomForestRegressor", notFittedErr.ModelName)
	assert.Equal(t, "Apply", notFittedErr.Method)
}

func TestConfigurationErrorMatchesSentinel(t *testing.T) {
	err := stratxErrors.NewConfigurationError("PartialDependence", "min_slopes_per_x", "exceeds leaf count")
	wrapped := stratxErrors.Wrap(err, "column x1")

	assert.True(t, stratxErrors.Is(wrapped, stratxErrors.ErrConfiguration))
	assert.False(t, stratxErrors.Is(wrapped, stratxErrors.ErrInsufficientData))

	var cfgErr *stratxErrors.ConfigurationError
	require.True(t, stratxErrors.As(wrapped, &cfgErr))
	assert.Equal(t, "min_slopes_per_x", cfgErr.Param)
	assert.Contains(t, wrapped.Error(), "column x1")
	assert.Contains(t, wrapped.Error(), "exceeds leaf count")
}

func TestInsufficientDataErrorFields(t *testing.T) {
	err := stratxErrors.NewInsufficientDataError("Integrate", "age", 0, 40)

	assert.True(t, errors.Is(err, stratxErrors.ErrInsufficientData))

	var insErr *stratxErrors.InsufficientDataError
	require.True(t, errors.As(err, &insErr))
	assert.Equal(t, "age", insErr.Column)
	assert.Equal(t, 40, insErr.MinSupport)
	assert.Equal(t, 0, insErr.Retained)
}

func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")
	customErr := stratxErrors.NewModelError("TestOp", "test failure", stdErr)
	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	assert.True(t, errors.Is(wrappedErr, stdErr))

	var modelErr *stratxErrors.ModelError
	require.True(t, errors.As(wrappedErr, &modelErr))
	assert.Equal(t, stdErr, modelErr.Unwrap())
}

func TestSentinelErrors(t *testing.T) {
	err := stratxErrors.NewModelError("TestOp", "empty data", stratxErrors.ErrEmptyData)
	assert.True(t, errors.Is(err, stratxErrors.ErrEmptyData))

	wrappedErr := fmt.Errorf("preprocessing failed: %w", err)
	assert.True(t, errors.Is(wrappedErr, stratxErrors.ErrEmptyData))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer stratxErrors.Recover(&err, "Kernel.Run")
		var s []float64
		_ = s[3]
		return nil
	}

	err := run()
	require.Error(t, err)

	var modelErr *stratxErrors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "Kernel.Run", modelErr.Op)
}

func TestRecoverWithoutPanic(t *testing.T) {
	run := func() (err error) {
		defer stratxErrors.Recover(&err, "Kernel.Run")
		return nil
	}
	assert.NoError(t, run())
}
