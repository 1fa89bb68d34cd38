package ws

import (
	"encoding/json"
	"time"

	"cellsim/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

// Server -> Client messages

type SimStatePayload struct {
	Time    string  `json:"time"`
	Step    int     `json:"step"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
}

type StepPayload struct {
	Step        int     `json:"step"`
	Timestamp   string  `json:"timestamp"`
	GenE        float64 `json:"gen_e"`
	LoadE       float64 `json:"load_e"`
	GenT        float64 `json:"gen_t"`
	LoadT       float64 `json:"load_t"`
	Fuel        float64 `json:"fuel"`
	OutdoorTemp float64 `json:"t_out"`
}

type SummaryPayload struct {
	Steps              int     `json:"steps"`
	GenEKWh            float64 `json:"gen_e_kwh"`
	LoadEKWh           float64 `json:"load_e_kwh"`
	GenTKWh            float64 `json:"gen_t_kwh"`
	LoadTKWh           float64 `json:"load_t_kwh"`
	FuelKWh            float64 `json:"fuel_kwh"`
	ImportKWh          float64 `json:"import_kwh"`
	ExportKWh          float64 `json:"export_kwh"`
	SelfConsumptionKWh float64 `json:"self_consumption_kwh"`
	SelfSufficiency    float64 `json:"self_sufficiency_percent"`
	TodayLoadEKWh      float64 `json:"today_load_e_kwh"`
	MonthLoadEKWh      float64 `json:"month_load_e_kwh"`
}

type TimeRangeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DataLoadedPayload describes the loaded scenario to a new client.
type DataLoadedPayload struct {
	Scenario  string         `json:"scenario"`
	Nodes     map[string]int `json:"nodes"`
	TimeRange TimeRangeInfo  `json:"time_range"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart    = "sim:start"
	TypeSimPause    = "sim:pause"
	TypeSimSetSpeed = "sim:set_speed"
	TypeSimReset    = "sim:reset"

	// Server -> Client
	TypeSimState      = "sim:state"
	TypeStepUpdate    = "step:update"
	TypeSummaryUpdate = "summary:update"
	TypeDataLoaded    = "data:loaded"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s simulator.State) SimStatePayload {
	return SimStatePayload{
		Time:    s.Time.UTC().Format(time.RFC3339),
		Step:    s.Step,
		Speed:   s.Speed,
		Running: s.Running,
	}
}

func StepFromEngine(r simulator.StepResult) StepPayload {
	return StepPayload{
		Step:        r.Step,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
		GenE:        r.GenE,
		LoadE:       r.LoadE,
		GenT:        r.GenT,
		LoadT:       r.LoadT,
		Fuel:        r.Fuel,
		OutdoorTemp: r.OutdoorTemp,
	}
}

func SummaryFromEngine(s simulator.Summary) SummaryPayload {
	return SummaryPayload{
		Steps:              s.Steps,
		GenEKWh:            s.GenEKWh,
		LoadEKWh:           s.LoadEKWh,
		GenTKWh:            s.GenTKWh,
		LoadTKWh:           s.LoadTKWh,
		FuelKWh:            s.FuelKWh,
		ImportKWh:          s.ImportKWh,
		ExportKWh:          s.ExportKWh,
		SelfConsumptionKWh: s.SelfConsumptionKWh,
		SelfSufficiency:    s.SelfSufficiency(),
		TodayLoadEKWh:      s.TodayLoadEKWh,
		MonthLoadEKWh:      s.MonthLoadEKWh,
	}
}
