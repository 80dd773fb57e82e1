package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTownSource struct{}

func (failingTownSource) ListTowns(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestTownValidator(t *testing.T) {
	v := NewTownValidator([]string{"Bethel", " New Haven ", ""})

	assert.True(t, v.Valid("BETHEL"))
	assert.True(t, v.Valid("bethel"))
	assert.True(t, v.Valid("new haven"))
	assert.False(t, v.Valid("Springfield"))
	assert.False(t, v.Valid(""))
	assert.False(t, v.Valid("   "))
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"Bethel", "New Haven"}, v.Names())
}

func TestLoadTownValidator(t *testing.T) {
	v, err := LoadTownValidator(context.Background(), ConnecticutTowns)
	require.NoError(t, err)
	assert.Equal(t, 169, v.Len())
	assert.True(t, v.Valid("WINDSOR LOCKS"))
	assert.False(t, v.Valid("Unit 82"))

	_, err = LoadTownValidator(context.Background(), failingTownSource{})
	assert.Error(t, err)
}

func TestStaticTownsReturnsCopy(t *testing.T) {
	towns, err := ConnecticutTowns.ListTowns(context.Background())
	require.NoError(t, err)
	towns[0] = "Nowhere"
	assert.Equal(t, "Andover", ConnecticutTowns[0])
}

func TestTownValidatorSuggest(t *testing.T) {
	v, err := LoadTownValidator(context.Background(), ConnecticutTowns)
	require.NoError(t, err)

	name, score := v.Suggest("hartford")
	assert.Equal(t, "Hartford", name)
	assert.Equal(t, 1.0, score)

	name, score = v.Suggest("Middeltown")
	assert.Equal(t, "Middletown", name)
	assert.GreaterOrEqual(t, score, MinSuggestSimilarity)

	name, _ = v.Suggest("Unit 82")
	assert.Empty(t, name)

	name, score = v.Suggest("  ")
	assert.Empty(t, name)
	assert.Zero(t, score)
}
