// Package anatomy maps FDI tooth numbers to tooth types and their named
// surface zones. Zone names are stable identifiers: the chart reconstruction
// engine and the composite procedure builders use them as map keys, so they
// must never change once recorded.
package anatomy

// ToothType classifies a tooth by its surface topology.
type ToothType string

const (
	Anterior ToothType = "anterior"
	Premolar ToothType = "premolar"
	Molar    ToothType = "molar"
)

// sharedZones are present on every tooth regardless of type.
var sharedZones = []string{
	"mesial",
	"distal",
	"cervical-buccal",
	"cervical-lingual",
	"root-buccal",
	"root-lingual",
}

// Classify returns the ToothType for an FDI tooth number (11-48).
// Unknown numbers fall back to Anterior; callers treat this as a rendering
// default, not an error.
func Classify(tooth int) ToothType {
	quadrant := tooth / 10
	position := tooth % 10
	if quadrant < 1 || quadrant > 4 {
		return Anterior
	}
	switch {
	case position >= 6 && position <= 8:
		return Molar
	case position == 4 || position == 5:
		return Premolar
	case position >= 1 && position <= 3:
		return Anterior
	default:
		return Anterior
	}
}

// Zones returns the ordered zone set for a tooth type. Molars split the
// occlusal, buccal and lingual surfaces into four sub-zones each (18 zones
// total); premolars and anteriors carry single-part surfaces plus an incisal
// edge (10 zones total).
func Zones(t ToothType) []string {
	if t == Molar {
		zones := make([]string, 0, 18)
		for _, surface := range []string{"occlusal", "buccal", "lingual"} {
			for i := 1; i <= 4; i++ {
				zones = append(zones, surface+"-"+digit(i))
			}
		}
		return append(zones, sharedZones...)
	}
	zones := make([]string, 0, 10)
	zones = append(zones, "occlusal", "incisal", "buccal", "lingual")
	return append(zones, sharedZones...)
}

// OcclusalZones returns the zones a fissure sealing covers: all four occlusal
// sub-zones on a molar, the single occlusal zone otherwise.
func OcclusalZones(t ToothType) []string {
	if t == Molar {
		return []string{"occlusal-1", "occlusal-2", "occlusal-3", "occlusal-4"}
	}
	return []string{"occlusal"}
}

func digit(i int) string {
	return string(rune('0' + i))
}
