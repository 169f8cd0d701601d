package chessdto

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

// LegalMovesResponse is the body of GET /api/games/{id}/legal.
type LegalMovesResponse struct {
	Square Square `json:"square"`
	Moves  []Move `json:"moves"`
}

// ArchivedGame is one entry of GET /api/archive.
type ArchivedGame struct {
	ID        string   `json:"id"`
	White     string   `json:"white"`
	Black     string   `json:"black"`
	Result    string   `json:"result"`
	Method    string   `json:"method"`
	Moves     []string `json:"moves"`
	PGN       string   `json:"pgn"`
	EndedAt   int64    `json:"endedAt"`
	DurationS int64    `json:"durationSec"`
}
