package models

// AnswerView is one answer option with its aggregate vote count. DidSelect is
// only true for the requesting caller's own vote; counts are identity
// agnostic for everyone else.
type AnswerView struct {
	AnswerID  string `json:"answer_id"`
	Answer    string `json:"answer"`
	VoteCount int64  `json:"vote_count"`
	DidSelect bool   `json:"did_select"`
}

// GameView is the authoritative read model pushed to websocket viewers and
// returned from the read endpoint.
type GameView struct {
	Game      Game         `json:"game"`
	Status    string       `json:"status"`
	TotalPool float64      `json:"total_pool"`
	Answers   []AnswerView `json:"answers"`
}
