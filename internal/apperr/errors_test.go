package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrongStateNamesStatus(t *testing.T) {
	err := WrongState("r1", "failed", "fetch result for")
	assert.Equal(t, CodeWrongState, err.Code)
	assert.Contains(t, err.Message, "status is failed")
	assert.Equal(t, "failed", err.Details["status"])
}

func TestAsThroughWrapping(t *testing.T) {
	base := RunNotFound("r1")
	wrapped := fmt.Errorf("poll: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestMarshalIncludesCause(t *testing.T) {
	err := Wrap(CodeUpstream, "upstream rejected start", errors.New("status 503"))
	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "UPSTREAM_ERROR", decoded["code"])
	assert.Equal(t, "status 503", decoded["cause"])
	assert.Equal(t, "[UPSTREAM_ERROR] upstream rejected start: status 503", err.Error())
}
