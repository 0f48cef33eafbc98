package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
}

func TestParseJSONObject(t *testing.T) {
	got, err := ParseJSON[event]("```json\n{\"name\": \"Фенис\", \"startDate\": \"2025-06-25\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Фенис", got.Name)
	assert.Equal(t, "2025-06-25", got.StartDate)
}

func TestParseJSONArray(t *testing.T) {
	got, err := ParseJSON[[]event](`<!-- [{"name": "a"}, {"name": "b"}] -->`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)
}

func TestParseJSONErrors(t *testing.T) {
	_, err := ParseJSON[event]("no json here")
	assert.Error(t, err)

	_, err = ParseJSON[event]("{ broken")
	assert.Error(t, err)

	_, err = ParseJSON[event](`{"name": 5}`)
	assert.Error(t, err)
}
