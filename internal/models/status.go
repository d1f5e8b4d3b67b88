package models

import "fmt"

// Status is the review state of a player's case.
type Status int

const (
	StatusNone     Status = 0
	StatusBanned   Status = 1
	StatusSuspect  Status = 2
	StatusDiscuss  Status = 3
	StatusInnocent Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusBanned:
		return "banned"
	case StatusSuspect:
		return "suspect"
	case StatusDiscuss:
		return "discuss"
	case StatusInnocent:
		return "innocent"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Action is a request to move a case, issued by a report or a judgement.
type Action string

const (
	ActionReport   Action = "report"
	ActionSuspect  Action = "suspect"
	ActionDiscuss  Action = "discuss"
	ActionInnocent Action = "innocent"
	ActionGuilt    Action = "guilt"
	ActionKill     Action = "kill"
)

// JudgementActions are the actions staff may submit as a judgement.
var JudgementActions = []Action{ActionSuspect, ActionDiscuss, ActionInnocent, ActionGuilt, ActionKill}

// IsJudgement reports whether a is a staff judgement action.
func (a Action) IsJudgement() bool {
	for _, j := range JudgementActions {
		if a == j {
			return true
		}
	}
	return false
}

// RequiresCheatMethods reports whether the action must name at least one cheat method.
func (a Action) RequiresCheatMethods() bool {
	return a == ActionGuilt || a == ActionKill
}
