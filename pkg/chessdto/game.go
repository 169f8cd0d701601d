package chessdto

// Status holds the facts computed for the side to move. Summary is a human readable line.
type Status struct {
	Turn      string `json:"turn"`
	Check     bool   `json:"check"`
	Checkmate bool   `json:"checkmate"`
	Stalemate bool   `json:"stalemate"`
	Summary   string `json:"summary,omitempty"`
}

// Game is the full session record sent with every game-update. White and Black are null
// until seats are bound. Status is omitted in stored copies.
type Game struct {
	ID        string  `json:"id"`
	Creator   string  `json:"creator"`
	Board     Board   `json:"board"`
	White     *string `json:"white"`
	Black     *string `json:"black"`
	Status    *Status `json:"status,omitempty"`
	CreatedAt int64   `json:"createdAt,omitempty"`
	UpdatedAt int64   `json:"updatedAt,omitempty"`
}
