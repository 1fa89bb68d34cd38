package model

import (
	"errors"
	"fmt"
)

// AgentType selects the standard load profile an agent follows.
type AgentType int

const (
	PHH  AgentType = iota // private household
	BSLa                  // agricultural business
	BSLc                  // common business
)

func (t AgentType) String() string {
	switch t {
	case PHH:
		return "phh"
	case BSLa:
		return "bsla"
	case BSLc:
		return "bslc"
	}
	return fmt.Sprintf("agent_type(%d)", int(t))
}

// ParseAgentType maps a config name to an AgentType.
func ParseAgentType(s string) (AgentType, error) {
	switch s {
	case "phh", "PHH":
		return PHH, nil
	case "bsla", "BSLa":
		return BSLa, nil
	case "bslc", "BSLc":
		return BSLc, nil
	}
	return 0, fmt.Errorf("unknown agent type %q", s)
}

// Valid reports whether t is one of the three known profile types.
func (t AgentType) Valid() bool {
	return t >= PHH && t <= BSLc
}

// SLP holds the standard load profile value for each agent type, indexed by AgentType.
type SLP [3]float64

func (s SLP) For(t AgentType) float64 {
	return s[t]
}

// ErrSlotOccupied is returned when installing into a single-slot position
// that already holds a component.
var ErrSlotOccupied = errors.New("slot already occupied")

// ErrIndexOutOfRange is returned when replacing a member at a position that
// does not exist.
var ErrIndexOutOfRange = errors.New("index out of range")
