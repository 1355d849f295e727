package catalog

import (
	"fmt"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// Marker hues on the 0-360 colour wheel.
const (
	HueRed    = 0.0
	HueGreen  = 120.0
	HueViolet = 270.0
)

// IconFactory builds the icon for a category.
type IconFactory interface {
	Icon(c domain.Category) (domain.Icon, error)
}

// IconFactoryFunc adapts a plain function to IconFactory.
type IconFactoryFunc func(c domain.Category) (domain.Icon, error)

// Icon calls f(c).
func (f IconFactoryFunc) Icon(c domain.Category) (domain.Icon, error) {
	return f(c)
}

// DefaultIcons colours people red, activities green and spots violet.
var DefaultIcons IconFactory = IconFactoryFunc(func(c domain.Category) (domain.Icon, error) {
	switch c {
	case domain.CategoryPerson:
		return domain.Icon{Name: "person", Hue: HueRed}, nil
	case domain.CategoryActivity:
		return domain.Icon{Name: "activity", Hue: HueGreen}, nil
	case domain.CategorySpot:
		return domain.Icon{Name: "spot", Hue: HueViolet}, nil
	}
	return domain.Icon{}, fmt.Errorf("no icon for category %d", int(c))
})
