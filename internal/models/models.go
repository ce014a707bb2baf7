package models

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusDone      = "DONE"
	StatusCancelled = "CANCELLED"
)

const (
	ServiceConsultation = "consultation"
	ServiceAdmission    = "admission"
	ServiceContest      = "contest"
	ServiceOnline       = "online"
)

type TicketRecord struct {
	Number    string    `json:"number"`
	Prefix    string    `json:"prefix"`
	Desk      *int      `json:"desk"`
	Service   string    `json:"service"`
	Category  string    `json:"category"`
	Direction string    `json:"direction,omitempty"`
	PayType   string    `json:"payType,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	FIO       string    `json:"fio,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionState struct {
	Lang     string        `json:"lang"`
	Verified bool          `json:"verified"`
	FIO      string        `json:"fio"`
	Phone    string        `json:"phone"`
	Category string        `json:"category"`
	Service  string        `json:"service"`
	Ticket   *TicketRecord `json:"ticket"`
}

func DefaultSession() SessionState {
	return SessionState{Lang: "kz"}
}

type Desks map[string][]int

type RoutingConfig struct {
	Flags map[string]any  `json:"flags"`
	Desks Desks           `json:"desks"`
	UI    json.RawMessage `json:"ui,omitempty"`
}

// Flag reports a boolean feature flag, or def when the flag is absent or
// not a boolean.
func (c RoutingConfig) Flag(name string, def bool) bool {
	v, ok := c.Flags[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Clone returns a copy that shares no maps or slices with c.
func (c RoutingConfig) Clone() RoutingConfig {
	out := RoutingConfig{
		Flags: make(map[string]any, len(c.Flags)),
		Desks: make(Desks, len(c.Desks)),
	}
	for k, v := range c.Flags {
		out.Flags[k] = v
	}
	for k, v := range c.Desks {
		out.Desks[k] = append([]int(nil), v...)
	}
	if len(c.UI) > 0 {
		out.UI = append(json.RawMessage(nil), c.UI...)
	}
	return out
}

func IntPtr(v int) *int {
	return &v
}
