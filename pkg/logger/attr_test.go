package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verdantlab/sprout/pkg/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))

	err := errors.New("boom")
	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())
}

func TestErrors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))

	attr := logger.Errors(errors.New("first"), nil, errors.New("third"))
	assert.Equal(t, "errors", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)
}

func TestIdentifierAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
	assert.Equal(t, "user_id", logger.UserID("u1").Key)
	assert.Equal(t, "owner_id", logger.OwnerID("o1").Key)
	assert.Equal(t, "request_id", logger.RequestID("r1").Key)
	assert.Equal(t, "action", logger.Action("checkout_started").Key)
	assert.Equal(t, "tier", logger.Tier("premium").Key)
	assert.Equal(t, "price_id", logger.PriceID("pri_1").Key)
}

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("billing", slog.String("tier", "pro"))
	assert.Equal(t, "billing", attr.Key)
	assert.Len(t, attr.Value.Group(), 1)
}
