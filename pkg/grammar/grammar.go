package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/tracks/pkg/domain"
)

const (
	openBracket  = "["
	closeBracket = "]"
)

// opcodes maps every accepted spelling (upper-cased) to its opcode.
var opcodes = map[string]domain.Opcode{
	"LT":      domain.OpLeft,
	"LEFT":    domain.OpLeft,
	"RT":      domain.OpRight,
	"RIGHT":   domain.OpRight,
	"FD":      domain.OpForward,
	"FORWARD": domain.OpForward,
	"BK":      domain.OpBack,
	"BACK":    domain.OpBack,
	"REPEAT":  domain.OpRepeat,
}

// Lookup resolves an opcode spelling, short or descriptive, ignoring case.
func Lookup(name string) (domain.Opcode, bool) {
	op, ok := opcodes[strings.ToUpper(name)]
	return op, ok
}

// Aliases lists the accepted spellings of each opcode, sorted.
func Aliases() map[domain.Opcode][]string {
	out := make(map[domain.Opcode][]string)
	for name, op := range opcodes {
		out[op] = append(out[op], name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

// ExtractCommands splits text into top-level command strings.
// A primitive command is two tokens; a repeat spans from its opcode to the bracket
// that closes its body, and is folded back into one string.
func ExtractCommands(text string) ([]string, error) {
	tokens := strings.Fields(text)
	commands := make([]string, 0, len(tokens)/2)

	for i := 0; i < len(tokens); {
		tok := tokens[i]

		if tok == closeBracket {
			return nil, malformed(strings.Join(tokens[i:], " "), "unexpected %q", closeBracket)
		}

		if op, _ := Lookup(tok); op == domain.OpRepeat {
			end, err := matchBracket(tokens, i)
			if err != nil {
				return nil, err
			}
			commands = append(commands, strings.Join(tokens[i:end+1], " "))
			i = end + 1
			continue
		}

		// Primitive. A trailing lone token is kept so that ParseCommand reports it.
		end := i + 2
		if end > len(tokens) {
			end = len(tokens)
		}
		commands = append(commands, strings.Join(tokens[i:end], " "))
		i = end
	}

	return commands, nil
}

// matchBracket returns the index of the bracket closing the repeat that starts at tokens[start].
func matchBracket(tokens []string, start int) (int, error) {
	if start+2 >= len(tokens) || tokens[start+2] != openBracket {
		end := start + 3
		if end > len(tokens) {
			end = len(tokens)
		}
		return 0, malformed(strings.Join(tokens[start:end], " "), "expected %q after repeat count", openBracket)
	}

	depth := 0
	for i := start + 2; i < len(tokens); i++ {
		switch tokens[i] {
		case openBracket:
			depth++
		case closeBracket:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, malformed(strings.Join(tokens[start:], " "), "unclosed %q", openBracket)
}

// ParseCommand parses one command string, as produced by ExtractCommands.
func ParseCommand(command string) (domain.Command, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, malformed(command, "empty command")
	}

	op, ok := Lookup(fields[0])
	if !ok {
		return nil, malformed(command, "unknown opcode %q", fields[0])
	}

	switch op {
	case domain.OpLeft, domain.OpRight:
		degrees, err := argument(command, fields)
		if err != nil {
			return nil, err
		}
		return domain.Rotate{Direction: op, Degrees: degrees}, nil

	case domain.OpForward, domain.OpBack:
		distance, err := argument(command, fields)
		if err != nil {
			return nil, err
		}
		if distance < 0 {
			return nil, malformed(command, "negative distance %d", distance)
		}
		return domain.Move{Direction: op, Distance: distance}, nil

	default:
		return parseRepeat(command, fields)
	}
}

func parseRepeat(command string, fields []string) (domain.Command, error) {
	if len(fields) < 4 || fields[2] != openBracket || fields[len(fields)-1] != closeBracket {
		return nil, malformed(command, "expected REPEAT <count> [ ... ]")
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, malformed(command, "invalid repeat count %q", fields[1])
	}
	if count < 0 {
		return nil, malformed(command, "negative repeat count %d", count)
	}

	// The bracket at fields[2] must close at the very end, not earlier.
	if end, err := matchBracket(fields, 0); err != nil || end != len(fields)-1 {
		return nil, malformed(command, "unbalanced brackets")
	}

	body, err := ExtractCommands(strings.Join(fields[3:len(fields)-1], " "))
	if err != nil {
		return nil, fmt.Errorf("repeat body: %w", err)
	}

	return domain.Repeat{Count: count, Body: body}, nil
}

func argument(command string, fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, malformed(command, "expected 1 argument, got %d", len(fields)-1)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, malformed(command, "invalid number %q", fields[1])
	}
	return n, nil
}

func malformed(command, format string, args ...any) error {
	return &domain.CommandError{
		Command: command,
		Err:     fmt.Errorf("%w: %s", domain.ErrMalformedCommand, fmt.Sprintf(format, args...)),
	}
}
