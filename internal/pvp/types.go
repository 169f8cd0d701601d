package pvp

type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Seats binds the two player identities of a game.
type Seats struct {
	White string
	Black string
}

// ColorOf returns the seat held by user, or "" when user is not seated.
func (s Seats) ColorOf(user string) Color {
	switch user {
	case "":
		return ""
	case s.White:
		return ColorWhite
	case s.Black:
		return ColorBlack
	default:
		return ""
	}
}
