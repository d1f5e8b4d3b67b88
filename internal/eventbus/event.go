package eventbus

import (
	"time"

	"cheatreport/backend/internal/models"

	"github.com/google/uuid"
)

// Kind names a domain event.
type Kind string

const (
	KindReport         Kind = "report"
	KindReply          Kind = "reply"
	KindJudge          Kind = "judge"
	KindBanAppeal      Kind = "banappeal"
	KindViewBanAppeal  Kind = "viewBanappeal"
	KindNameTracker    Kind = "name_tracker"
	KindProfileRefresh Kind = "profile_refresh"
)

// Event is an immutable fact about a completed case mutation. Payload is one
// of the *Payload types below, matching Kind.
type Event struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

func newEvent(kind Kind, payload any) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Payload: payload, At: time.Now()}
}

type ReportPayload struct {
	Report        models.Report `json:"report"`
	Player        models.Player `json:"player"`
	StatusChanged bool          `json:"statusChanged"`
}

type JudgePayload struct {
	Judgement     models.Judgement `json:"judgement"`
	Player        models.Player    `json:"player"`
	Previous      models.Status    `json:"previousStatus"`
	StatusChanged bool             `json:"statusChanged"`
}

type ReplyPayload struct {
	Reply  models.Reply  `json:"reply"`
	Player models.Player `json:"player"`
}

type BanAppealPayload struct {
	Appeal models.BanAppeal `json:"banAppeal"`
	Player models.Player    `json:"player"`
}

// ViewBanAppealPayload is published once an appeal reaches its reviewer quorum.
type ViewBanAppealPayload struct {
	Appeal  models.BanAppeal `json:"banAppeal"`
	AdminID string           `json:"adminId"`
}

// NameLogPayload is published when an identity is seen under a new name.
// Previous is nil for the first name ever recorded.
type NameLogPayload struct {
	Log      models.NameLog  `json:"nameLog"`
	Previous *models.NameLog `json:"previous,omitempty"`
}

type ProfileRefreshPayload struct {
	Player models.Player `json:"player"`
}
