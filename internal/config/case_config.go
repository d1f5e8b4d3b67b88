package config

const (
	// AppealReviewQuorum is the number of distinct staff reviews after which
	// an appeal's pending notification is withdrawn.
	AppealReviewQuorum = 3

	// DefaultAvatar is stored when the avatar lookup for a player fails.
	DefaultAvatar = "https://secure.download.dm.origin.com/production/avatar/prod/1/599/208x208.JPEG"

	MaxContentLength = 65535
)

// SupportedGames are the games a report may name.
var SupportedGames = []string{"bf1", "bfv", "bf6", "bf2042"}

// CheatMethods is the vocabulary of cheat-method tags.
var CheatMethods = []string{
	"wallhack", "aimbot", "oneShotKill", "stealth", "damageChange", "gadgetModify", "teleport", "attackSystem",
}

// IsSupportedGame reports whether game is one of SupportedGames.
func IsSupportedGame(game string) bool {
	for _, g := range SupportedGames {
		if g == game {
			return true
		}
	}
	return false
}
