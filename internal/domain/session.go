// Package domain contains core domain types for the interview service.
package domain

import (
	"strings"
	"time"
)

// Speaker tags who produced a turn.
type Speaker string

const (
	SpeakerAgent Speaker = "agent"
	SpeakerUser  Speaker = "user"
)

// Persona is the conversational style the interviewer adopts.
type Persona string

const (
	PersonaNeutral   Persona = "neutral"
	PersonaConfused  Persona = "confused"
	PersonaEfficient Persona = "efficient"
	PersonaChatty    Persona = "chatty"
)

// Personas lists every accepted persona value.
var Personas = []Persona{PersonaNeutral, PersonaConfused, PersonaEfficient, PersonaChatty}

// ParsePersona normalizes s and reports whether it names a known persona.
func ParsePersona(s string) (Persona, bool) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Personas {
		if p == known {
			return p, true
		}
	}
	return p, false
}

// Turn is a single utterance in the interview history.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Session holds one candidate's interview state.
type Session struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Persona   Persona
	Resume    string
	StartedAt time.Time
	UpdatedAt time.Time
	History   []Turn
	Active    bool
	Turns     int
}

// HasResume reports whether any resume text was captured at start.
func (s *Session) HasResume() bool {
	return s.Resume != ""
}

// RecentTurns returns the last n turns from history, oldest first.
func (s *Session) RecentTurns(n int) []Turn {
	if n >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// LastAgentTurnBefore returns the text of the latest agent turn strictly
// before index i, or "" when there is none.
func (s *Session) LastAgentTurnBefore(i int) string {
	if i > len(s.History) {
		i = len(s.History)
	}
	for j := i - 1; j >= 0; j-- {
		if s.History[j].Speaker == SpeakerAgent {
			return s.History[j].Text
		}
	}
	return ""
}

// Clone returns a copy whose history does not alias the receiver's.
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]Turn(nil), s.History...)
	return &c
}
