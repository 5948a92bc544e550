package response

import "github.com/lottagg/raffle-api/internal/domain"

// RaffleWithRound pairs a configured raffle with its current round, if one
// is open.
type RaffleWithRound struct {
	Raffle domain.Raffle `json:"raffle"`
	Round  *domain.Round `json:"round,omitempty"`
}

type EnteredResponse struct {
	Entered bool `json:"entered"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// CommitResponse is the public view of a round's commitment. The reveal
// payload appears only after the draw.
type CommitResponse struct {
	RoundID    string                `json:"round_id"`
	CommitHash string                `json:"commit_hash"`
	Revealed   bool                  `json:"revealed"`
	Reveal     *domain.RevealPayload `json:"reveal,omitempty"`
}
