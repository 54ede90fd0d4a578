// Package query turns positional command line arguments into a stream query
package query

import (
	"errors"
	"fmt"
)

// Mode represents what streams to ask for
type Mode int

// Query modes
const (
	Channels Mode = iota
	Game
	Language
	GameAndLanguage
)

func (m Mode) String() string {
	switch m {
	case Game:
		return "game"
	case Language:
		return "lang"
	case GameAndLanguage:
		return "lang+game"
	}
	return "channels"
}

// Query represents a stream query
type Query struct {
	Mode     Mode
	Game     string
	Language string
	Channels []string // login names for Channels mode
}

// ErrUsage emerges whenever the arguments do not form a query
var ErrUsage = errors.New("invalid arguments")

// Parse reads a query from positional arguments.
// No arguments select Channels mode,
// otherwise arguments are "game <name>" and "lang <code>" pairs in any order.
func Parse(args []string) (Query, error) {
	var q Query
	seen := map[string]bool{}
	for i := 0; i < len(args); i += 2 {
		keyword := args[i]
		if keyword != "game" && keyword != "lang" {
			return Query{}, fmt.Errorf("%w: unexpected %q", ErrUsage, keyword)
		}
		if seen[keyword] {
			return Query{}, fmt.Errorf("%w: %s given twice", ErrUsage, keyword)
		}
		seen[keyword] = true
		if i+1 >= len(args) || args[i+1] == "" {
			return Query{}, fmt.Errorf("%w: %s requires a value", ErrUsage, keyword)
		}
		if keyword == "game" {
			q.Game = args[i+1]
		} else {
			q.Language = args[i+1]
		}
	}
	switch {
	case q.Game != "" && q.Language != "":
		q.Mode = GameAndLanguage
	case q.Game != "":
		q.Mode = Game
	case q.Language != "":
		q.Mode = Language
	default:
		q.Mode = Channels
	}
	return q, nil
}
