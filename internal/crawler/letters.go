package crawler

import (
	"fmt"
	"strings"
)

// AllLetters is the full listing range.
const AllLetters = "a-z"

// ParseLetters expands a comma separated list of letters and ranges such as "a-e,x,z". Letters are
// case-insensitive and returned lowercase in first-seen order without duplicates. An empty
// expression selects every letter.
func ParseLetters(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = AllLetters
	}
	seen := make(map[byte]bool)
	var out []string
	for _, item := range strings.Split(expr, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		from, to, err := letterRange(item)
		if err != nil {
			return nil, err
		}
		for c := from; c <= to; c++ {
			if !seen[c] {
				seen[c] = true
				out = append(out, string(c))
			}
		}
	}
	return out, nil
}

func letterRange(item string) (byte, byte, error) {
	switch {
	case len(item) == 1 && isLetter(item[0]):
		return item[0], item[0], nil
	case len(item) == 3 && item[1] == '-' && isLetter(item[0]) && isLetter(item[2]):
		if item[0] > item[2] {
			return 0, 0, fmt.Errorf("letter range %q is reversed", item)
		}
		return item[0], item[2], nil
	default:
		return 0, 0, fmt.Errorf("invalid letter item %q", item)
	}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
