package location

import "bloomwatch/internal/domain/entity"

type UseCase interface {
	ListCountries() []entity.Country
	// ListStates matches country case-insensitively
	ListStates(country string) ([]entity.State, error)
	ListCities(country string, state string) ([]entity.City, error)
}
