package structure

import "strings"

// DefaultMaterial is assigned to members created without an explicit tag.
const DefaultMaterial = "steel"

// Material is a catalogue entry for a member material tag.
type Material struct {
	Name        string  `json:"name"`
	E           float64 `json:"e"`       // elastic modulus, MPa
	Fy          float64 `json:"fy"`      // yield strength, MPa
	Density     float64 `json:"density"` // kg/m³
	Description string  `json:"description"`
}

var materials = []Material{
	{Name: "steel", E: 200000, Fy: 250, Density: 7850, Description: "Structural Steel (A36)"},
	{Name: "aluminum", E: 69000, Fy: 270, Density: 2700, Description: "Aluminum Alloy (6061-T6)"},
	{Name: "wood", E: 12000, Fy: 40, Density: 550, Description: "Wood (Southern Pine)"},
}

// Materials lists the known material tags in catalogue order.
func Materials() []Material {
	out := make([]Material, len(materials))
	copy(out, materials)
	return out
}

// LookupMaterial finds a material by tag, case-insensitively.
func LookupMaterial(tag string) (Material, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, m := range materials {
		if m.Name == tag {
			return m, true
		}
	}
	return Material{}, false
}
