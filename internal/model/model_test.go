package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbient_GlobalIrradiance(t *testing.T) {
	a := Ambient{DirectIrradiance: 300, DiffuseIrradiance: 120}
	assert.InDelta(t, 420, a.GlobalIrradiance(), 1e-9)
}

func TestBalance_Add(t *testing.T) {
	a := Balance{GenE: 1, LoadE: 2, GenT: 3, LoadT: 4}
	b := Balance{GenE: 10, LoadE: 20, GenT: 30, LoadT: 40}
	assert.Equal(t, Balance{GenE: 11, LoadE: 22, GenT: 33, LoadT: 44}, a.Add(b))
}

func TestBalance_AddElectrical(t *testing.T) {
	var b Balance
	b.AddElectrical(500)
	b.AddElectrical(-200)
	assert.InDelta(t, 500, b.GenE, 1e-9)
	assert.InDelta(t, 200, b.LoadE, 1e-9)
}

func TestParseAgentType(t *testing.T) {
	for _, name := range []string{"phh", "bsla", "bslc"} {
		at, err := ParseAgentType(name)
		require.NoError(t, err)
		assert.Equal(t, name, at.String())
		assert.True(t, at.Valid())
	}

	_, err := ParseAgentType("factory")
	assert.Error(t, err)
	assert.False(t, AgentType(7).Valid())
}

func TestSLP_For(t *testing.T) {
	s := SLP{100, 200, 300}
	assert.InDelta(t, 200, s.For(BSLa), 1e-9)
}

func TestQuantityCatalog(t *testing.T) {
	for _, q := range []QuantityType{QuantityGenE, QuantityLoadE, QuantityGenT, QuantityLoadT, QuantityFuel} {
		info, ok := QuantityCatalog[q]
		require.True(t, ok, q)
		assert.Equal(t, "W", info.Unit)
	}
}
