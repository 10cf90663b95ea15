package domain

// Action is the next step chosen for an interview turn.
type Action string

const (
	ActionAskFollowup Action = "ask_followup"
	ActionAskNewTopic Action = "ask_new_topic"
	ActionAnswerUser  Action = "answer_user"
	ActionEndSession  Action = "end_session"
)

// Known reports whether a is one of the four supported actions.
func (a Action) Known() bool {
	switch a {
	case ActionAskFollowup, ActionAskNewTopic, ActionAnswerUser, ActionEndSession:
		return true
	default:
		return false
	}
}

// Decision is the model's structured choice for the current turn.
// It is never persisted.
type Decision struct {
	Action      Action
	Content     string
	ShouldScore bool
	Score       *int
	Feedback    string
}
