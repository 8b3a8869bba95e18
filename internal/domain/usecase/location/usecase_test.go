package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
)

func hierarchy() []entity.Country {
	return []entity.Country{
		{Name: "Japan", States: []entity.State{
			{Name: "Kyoto", Cities: []entity.City{{Name: "Uji", Latitude: 34.88, Longitude: 135.8}}},
		}},
		{Name: "United States", States: []entity.State{{Name: "Texas"}}},
	}
}

func TestListCountries(t *testing.T) {
	countries := NewLocationUseCase(hierarchy()).ListCountries()
	require.Len(t, countries, 2)
	assert.Equal(t, "Japan", countries[0].Name)
}

func TestListStatesIsCaseInsensitive(t *testing.T) {
	states, err := NewLocationUseCase(hierarchy()).ListStates(" united states ")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "Texas", states[0].Name)
}

func TestListCities(t *testing.T) {
	uc := NewLocationUseCase(hierarchy())

	cities, err := uc.ListCities("JAPAN", "kyoto")
	require.NoError(t, err)
	assert.Equal(t, []entity.City{{Name: "Uji", Latitude: 34.88, Longitude: 135.8}}, cities)

	_, err = uc.ListCities("Japan", "Osaka")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = uc.ListStates("Atlantis")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
