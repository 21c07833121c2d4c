package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", "")

	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestNew_DefaultModel(t *testing.T) {
	c, err := New(context.Background(), "test-key", "")

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)
}
