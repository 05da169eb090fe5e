package models

import "time"

// Sender identifies which side of the conversation authored a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// EntityType enumerates the entity kinds the extractor can emit.
type EntityType string

const (
	EntitySoilType EntityType = "soil_type"
	EntityLocation EntityType = "location"
	EntitySeason   EntityType = "season"
	EntityCropType EntityType = "crop_type"
	EntityQuantity EntityType = "quantity"
)

// Entity is a typed value extracted from a user message. Entities are
// ephemeral: produced per message and recorded verbatim on the turn,
// duplicates included.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// Turn is one message exchange unit inside a session. Turns are append-only
// and never mutated or reordered once recorded.
type Turn struct {
	Sender     Sender    `json:"sender"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Entities   []Entity  `json:"entities,omitempty"`
}

// Location is the accumulated location entity for a session.
type Location struct {
	Address string `json:"address"`
}

// UserContext is the session-scoped memory of previously extracted entities.
// Scalar fields are last-write-wins; CropPreferences and LastTopics accumulate
// in insertion order without duplicates.
type UserContext struct {
	Location        *Location `json:"location,omitempty"`
	SoilType        string    `json:"soilType,omitempty"`
	CropPreferences []string  `json:"cropPreferences,omitempty"`
	FarmSize        float64   `json:"farmSize,omitempty"`
	Experience      string    `json:"experience,omitempty"`
	LastTopics      []string  `json:"lastTopics,omitempty"`
}

// Session is the durable record of one conversation: the ordered turn log
// plus the accumulated context.
//
// Invariants: ID is globally unique; Turns are append-only; IsActive moves
// true -> false exactly once and never back. Version increases by one on
// every successful save and backs the optimistic concurrency check in the
// session store.
type Session struct {
	ID           string      `json:"sessionId"`
	OwnerID      string      `json:"ownerId"`
	Turns        []Turn      `json:"turns"`
	Context      UserContext `json:"context"`
	IsActive     bool        `json:"isActive"`
	LastActivity time.Time   `json:"lastActivity"`
	Satisfaction int         `json:"satisfaction,omitempty"`
	Version      int64       `json:"version"`
}

// AppendTurn records a turn at the end of the log.
func (s *Session) AppendTurn(t Turn) {
	s.Turns = append(s.Turns, t)
}

// UpdateActivity bumps the last activity timestamp.
func (s *Session) UpdateActivity() {
	s.LastActivity = time.Now().UTC()
}

// Action is a machine-readable directive attached to a bot response, consumed
// by the UI layer (e.g. render a crop recommendation card).
type Action struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// ChatResponse is the composed reply for one turn.
type ChatResponse struct {
	Message     string   `json:"message"`
	Intent      string   `json:"intent"`
	Confidence  float64  `json:"confidence"`
	Entities    []Entity `json:"entities"`
	Suggestions []string `json:"suggestions"`
	Actions     []Action `json:"actions"`
}
