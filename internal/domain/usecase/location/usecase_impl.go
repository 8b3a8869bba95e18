package location

import (
	"strings"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/msg"
)

type locationUseCase struct {
	countries []entity.Country
}

func NewLocationUseCase(countries []entity.Country) UseCase {
	return &locationUseCase{countries: countries}
}

func (uc *locationUseCase) ListCountries() []entity.Country {
	return append([]entity.Country(nil), uc.countries...)
}

func (uc *locationUseCase) ListStates(country string) ([]entity.State, error) {
	c, err := uc.findCountry(country)
	if err != nil {
		return nil, err
	}
	return append([]entity.State(nil), c.States...), nil
}

func (uc *locationUseCase) ListCities(country string, state string) ([]entity.City, error) {
	c, err := uc.findCountry(country)
	if err != nil {
		return nil, err
	}
	for _, s := range c.States {
		if sameName(s.Name, state) {
			return append([]entity.City(nil), s.Cities...), nil
		}
	}
	return nil, model.NotFound("%s", msg.GetMessage("location.error.state-not-found", state, c.Name))
}

func (uc *locationUseCase) findCountry(name string) (*entity.Country, error) {
	for i := range uc.countries {
		if sameName(uc.countries[i].Name, name) {
			return &uc.countries[i], nil
		}
	}
	return nil, model.NotFound("%s", msg.GetMessage("location.error.country-not-found", name))
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
