package domain

// Opcode identifies one of the instructions of the turtle language.
type Opcode string

const (
	OpLeft    Opcode = "LT"
	OpRight   Opcode = "RT"
	OpForward Opcode = "FD"
	OpBack    Opcode = "BK"
	OpRepeat  Opcode = "REPEAT"
)

// Command is a parsed instruction. The set of implementations is closed:
// Rotate, Move and Repeat.
type Command interface {
	Opcode() Opcode
	isCommand()
}

// Rotate turns the turtle. Direction is OpLeft or OpRight.
type Rotate struct {
	Direction Opcode `json:"direction"`
	Degrees   int    `json:"degrees"`
}

// Move walks the turtle one unit at a time. Direction is OpForward or OpBack.
type Move struct {
	Direction Opcode `json:"direction"`
	Distance  int    `json:"distance"`
}

// Repeat re-executes Body Count times.
// Body holds raw command strings; nested repeats are parsed when they run.
type Repeat struct {
	Count int      `json:"count"`
	Body  []string `json:"body"`
}

func (c Rotate) Opcode() Opcode { return c.Direction }
func (c Move) Opcode() Opcode   { return c.Direction }
func (c Repeat) Opcode() Opcode { return OpRepeat }

func (Rotate) isCommand() {}
func (Move) isCommand()   {}
func (Repeat) isCommand() {}
