package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	// Role is "editor" for the command agent or "player" for a play session.
	Role string `json:"role,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	MapID           string  `json:"map_id"`
	TickRateHz      int     `json:"tick_rate_hz"`
	WorldSize       float64 `json:"world_size"`
	EncounterRadius float64 `json:"encounter_radius"`
	Seed            int64   `json:"seed"`
}

// PLAYER_STATE (client -> server): the play session reports its position
// once per client frame. The loop applies the latest one at tick boundary.
type PlayerStateMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version,omitempty"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Z               float64 `json:"z"`
}
