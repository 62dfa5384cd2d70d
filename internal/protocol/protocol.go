// Package protocol defines the wire format between the simulation server and
// its single visualization client: inbound commands and outbound frames, plus
// the sanitizing serializer that keeps pathological payloads streamable.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/ai-town/internal/schedule"
)

// Client commands.
const (
	CmdStartSimulation = "start_simulation"
	CmdAgentTeleport   = "agent_teleport"
	CmdStepComplete    = "step_complete"
	CmdStartThinking   = "start_thinking"
	CmdStopThinking    = "stop_thinking"
)

// Frame types.
const (
	TypeStatus     = "status"
	TypeError      = "error"
	TypeUpdate     = "update"
	TypeMotion     = "motion"
	TypeEvaluation = "evaluation"
	TypeEnd        = "end"
)

// Command is one inbound client message.
type Command struct {
	Command          string          `json:"command"`
	Params           json.RawMessage `json:"params,omitempty"`
	AgentName        string          `json:"agent_name,omitempty"`
	TargetPortalName string          `json:"target_portal_name,omitempty"`
	StepID           int             `json:"step_id,omitempty"`
}

// StartParams configures one simulation run.
type StartParams struct {
	Duration int `json:"duration"`
	Step     int `json:"step"`
	EqStep   int `json:"eq_step"`

	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`

	MBTI             []string          `json:"mbti"`
	Locations        []string          `json:"locations"`
	InitialPositions map[string]string `json:"initial_positions"`

	EqEnabled bool   `json:"eq_enabled"`
	EqJSON    string `json:"eq_json"`

	UseDefaultCalendar bool `json:"use_default_calendar"`
	MaxChatGroups      int  `json:"max_chat_groups"`
	StepSync           bool `json:"step_sync"`
}

// ParseStart validates and decodes a start_simulation params payload.
func ParseStart(raw json.RawMessage) (*StartParams, error) {
	if err := validateStart(raw); err != nil {
		return nil, err
	}
	var p StartParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode start params: %w", err)
	}
	if p.MaxChatGroups < 1 {
		p.MaxChatGroups = 1
	}
	return &p, nil
}

// QuakeEvent is one scheduled earthquake from the eq_json parameter.
type QuakeEvent struct {
	Time      string  `json:"time"`
	Duration  int     `json:"duration"`
	Intensity float64 `json:"intensity"`
}

// ParseQuakes decodes the eq_json event list. An empty string yields no
// events.
func ParseQuakes(eqJSON string) ([]QuakeEvent, error) {
	if eqJSON == "" {
		return nil, nil
	}
	var events []QuakeEvent
	if err := json.Unmarshal([]byte(eqJSON), &events); err != nil {
		return nil, fmt.Errorf("decode eq_json: %w", err)
	}
	return events, nil
}

// Frame is one outbound server message.
type Frame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// AgentState is the per-agent slice of an update frame.
type AgentState struct {
	Name           string            `json:"name"`
	CurrentState   string            `json:"currentState"`
	Location       string            `json:"location"`
	HP             int               `json:"hp"`
	Schedule       string            `json:"schedule"`
	Memory         string            `json:"memory"`
	WeeklySchedule map[string]string `json:"weeklySchedule"`
	DailySchedule  []schedule.Item   `json:"dailySchedule"`
}

// BuildingState is the per-building slice of an update frame.
type BuildingState struct {
	ID        string  `json:"id"`
	Integrity float64 `json:"integrity"`
}

// AgentAction instructs the client to animate one agent this step.
type AgentAction struct {
	Agent   string `json:"agent"`
	Command string `json:"command"`

	// teleport
	FromPortal    string `json:"fromPortal,omitempty"`
	ToPortal      string `json:"toPortal,omitempty"`
	FinalLocation string `json:"finalLocation,omitempty"`
	TargetPlace   string `json:"targetPlace,omitempty"`

	// move
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	NextStep    string `json:"nextStep,omitempty"`

	Action string `json:"action,omitempty"`
	Emoji  string `json:"emoji,omitempty"`
}

// UpdateData is the payload of one tick frame.
type UpdateData struct {
	MainLog        string                   `json:"mainLog"`
	HistoryLog     []string                 `json:"historyLog"`
	AgentStates    map[string]AgentState    `json:"agentStates"`
	BuildingStates map[string]BuildingState `json:"buildingStates"`
	LLMLog         string                   `json:"llmLog"`
	Status         string                   `json:"status"`
	AgentActions   []AgentAction            `json:"agentActions"`
	StepID         int                      `json:"stepId"`
}

// XY is a map coordinate.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MicroMotion is one agent's idle animation directive.
type MicroMotion struct {
	Agent           string  `json:"agent"`
	Mode            string  `json:"mode"`
	Radius          float64 `json:"radius"`
	Period          float64 `json:"period"`
	Speed           float64 `json:"speed"`
	TempTarget      *XY     `json:"tempTarget,omitempty"`
	ArriveTolerance float64 `json:"arriveTolerance,omitempty"`
}

// MotionData is the payload of a motion frame.
type MotionData struct {
	MicroMotions []MicroMotion `json:"microMotions"`
}
