package houses

import (
	"context"
	"sort"

	"NatalChart/internal/domain/models"
)

// System divides the sky of a Frame into twelve houses.
// Cusps returns longitudes indexed from house 1.
type System interface {
	Name() models.HouseSystemName
	Cusps(ctx context.Context, f Frame) ([12]float64, error)
}

var registry = map[models.HouseSystemName]System{
	models.Placidus:  placidus{},
	models.Equal:     equal{},
	models.WholeSign: wholeSign{},
	models.Porphyry:  porphyry{},
}

// Lookup returns the house system registered under name.
func Lookup(name models.HouseSystemName) (System, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered house systems, sorted.
func Names() []models.HouseSystemName {
	out := make([]models.HouseSystemName, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// withOpposites fills houses 4..9 as the oppositions of 10..12 and 1..3.
func withOpposites(c1, c2, c3, c10, c11, c12 float64) [12]float64 {
	var c [12]float64
	c[0], c[1], c[2] = c1, c2, c3
	c[9], c[10], c[11] = c10, c11, c12
	for i := 3; i < 9; i++ {
		c[i] = opposite(c[(i+6)%12])
	}
	return c
}
