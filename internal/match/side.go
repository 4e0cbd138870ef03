package match

// Side identifies a player. The zero value means no side.
type Side uint8

const (
	NoSide Side = iota
	Player1
	Player2
)

func (s Side) String() string {
	switch s {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "none"
	}
}

// DisplayName is the label shown in banners.
func (s Side) DisplayName() string {
	switch s {
	case Player1:
		return "Player 1"
	case Player2:
		return "Player 2"
	default:
		return ""
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoSide
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
