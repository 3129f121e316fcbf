package morph

import (
	"fmt"
	"strings"
)

// Category identifies the semantic source of a contribution to a morph target
type Category uint8

const (
	CategoryWeight Category = iota
	CategoryWeightLoss
	CategoryFullness
	CategoryIntestinesFullness
	CategoryMuscles
	CategoryMusclesLoss
	CategoryEquipment
	CategoryExpression
	CategoryUrineVolume

	CategoryCount
)

var categoryNames = [CategoryCount]string{
	CategoryWeight:             "Weight",
	CategoryWeightLoss:         "WeightLoss",
	CategoryFullness:           "Fullness",
	CategoryIntestinesFullness: "IntestinesFullness",
	CategoryMuscles:            "Muscles",
	CategoryMusclesLoss:        "MusclesLoss",
	CategoryEquipment:          "Equipment",
	CategoryExpression:         "Expression",
	CategoryUrineVolume:        "UrineVolume",
}

func (c Category) String() string {
	if c < CategoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory resolves a category by name, case-insensitively
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	if c >= CategoryCount {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
