package domain

// Position is a cell coordinate. X grows to the east (column), Y to the south (row).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot represents the persisted form of a turtle.
type Snapshot struct {
	// SessionID is the identifier of the stream the turtle belongs to (optional).
	SessionID string `json:"session_id,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Angle is the heading in degrees, normalised to [0, 360). 0 is north.
	Angle int `json:"angle"`

	Position Position `json:"position"`

	// Marks lists the visited cells in row-major order.
	Marks []Position `json:"marks,omitempty"`

	// Commands counts the top-level commands applied so far.
	Commands int `json:"commands"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.Marks != nil {
		c.Marks = make([]Position, len(s.Marks))
		copy(c.Marks, s.Marks)
	}
	return &c
}
