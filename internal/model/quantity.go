package model

// QuantityType names a per-step output that can be recorded or streamed.
type QuantityType string

const (
	QuantityGenE        QuantityType = "gen_e"
	QuantityLoadE       QuantityType = "load_e"
	QuantityGenT        QuantityType = "gen_t"
	QuantityLoadT       QuantityType = "load_t"
	QuantityFuel        QuantityType = "fuel"
	QuantityOutdoorTemp QuantityType = "t_out"
)

// QuantityInfo holds display name and unit for a quantity type.
type QuantityInfo struct {
	Name string
	Unit string
}

// QuantityCatalog maps every known QuantityType to its display name and unit.
var QuantityCatalog = map[QuantityType]QuantityInfo{
	QuantityGenE:        {Name: "Electrical Generation", Unit: "W"},
	QuantityLoadE:       {Name: "Electrical Load", Unit: "W"},
	QuantityGenT:        {Name: "Thermal Generation", Unit: "W"},
	QuantityLoadT:       {Name: "Thermal Load", Unit: "W"},
	QuantityFuel:        {Name: "Fuel Power", Unit: "W"},
	QuantityOutdoorTemp: {Name: "Outside Temperature", Unit: "°C"},
}
