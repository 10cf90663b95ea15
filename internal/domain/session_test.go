package domain

import "testing"

func TestParsePersona(t *testing.T) {
	for _, in := range []string{"neutral", " Confused ", "EFFICIENT", "chatty"} {
		if _, ok := ParsePersona(in); !ok {
			t.Errorf("expected %q to be accepted", in)
		}
	}
	if p, _ := ParsePersona(" Chatty "); p != PersonaChatty {
		t.Errorf("expected normalized persona, got %q", p)
	}
	for _, in := range []string{"", "grumpy", "neutral!"} {
		if _, ok := ParsePersona(in); ok {
			t.Errorf("expected %q to be rejected", in)
		}
	}
}

func TestRecentTurns(t *testing.T) {
	s := &Session{History: []Turn{
		{SpeakerAgent, "a"}, {SpeakerUser, "b"}, {SpeakerAgent, "c"},
	}}

	if got := s.RecentTurns(2); len(got) != 2 || got[0].Text != "b" {
		t.Errorf("unexpected window: %+v", got)
	}
	if got := s.RecentTurns(12); len(got) != 3 {
		t.Errorf("expected whole history, got %d turns", len(got))
	}
}

func TestLastAgentTurnBefore(t *testing.T) {
	s := &Session{History: []Turn{
		{SpeakerAgent, "greeting"},
		{SpeakerAgent, "first question"},
		{SpeakerUser, "answer"},
		{SpeakerUser, "more"},
	}}

	if got := s.LastAgentTurnBefore(3); got != "first question" {
		t.Errorf("expected first question, got %q", got)
	}
	if got := s.LastAgentTurnBefore(0); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := s.LastAgentTurnBefore(99); got != "first question" {
		t.Errorf("expected clamp to history, got %q", got)
	}
}

func TestCloneDoesNotAliasHistory(t *testing.T) {
	s := &Session{ID: "x", History: []Turn{{SpeakerAgent, "hi"}}}
	c := s.Clone()
	c.History[0].Text = "changed"
	c.History = append(c.History, Turn{SpeakerUser, "new"})

	if s.History[0].Text != "hi" || len(s.History) != 1 {
		t.Fatalf("original mutated: %+v", s.History)
	}
}

func TestActionKnown(t *testing.T) {
	for _, a := range []Action{ActionAskFollowup, ActionAskNewTopic, ActionAnswerUser, ActionEndSession} {
		if !a.Known() {
			t.Errorf("expected %q known", a)
		}
	}
	if Action("dance").Known() {
		t.Error("unexpected known action")
	}
}
