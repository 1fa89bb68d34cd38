package cell

import "cellsim/internal/model"

// Manager keeps the balance of the last completed step of one cell. It is
// read by observers and by the thermal system controller of the next step.
type Manager struct {
	state model.CellState
}

// Update records the aggregate balance b and the fuel power of a step.
func (m *Manager) Update(b model.Balance, fuel float64) {
	m.state = model.CellState{
		GenE:          b.GenE,
		LoadE:         b.LoadE,
		GenT:          b.GenT,
		LoadT:         b.LoadT,
		ContributionE: b.GenE - b.LoadE,
		ContributionT: b.GenT - b.LoadT,
		Fuel:          fuel,
	}
}

func (m *Manager) State() model.CellState { return m.state }
