package model

import (
	"fmt"
	"strings"
)

// Rating is the source independent content rating of a post.
type Rating int

const (
	General Rating = iota
	Safe
	Sensitive
	Questionable
	Explicit
)

var ratingNames = [...]string{
	General:      "general",
	Safe:         "safe",
	Sensitive:    "sensitive",
	Questionable: "questionable",
	Explicit:     "explicit",
}

func (r Rating) String() string {
	if r < 0 || int(r) >= len(ratingNames) {
		return fmt.Sprintf("rating(%d)", int(r))
	}
	return ratingNames[r]
}

// ParseRating accepts the canonical lower case names used by String.
func ParseRating(s string) (Rating, error) {
	for i, name := range ratingNames {
		if strings.EqualFold(s, name) {
			return Rating(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rating %q", s)
}

func (r Rating) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(ratingNames) {
		return nil, fmt.Errorf("invalid rating %d", int(r))
	}
	return []byte(ratingNames[r]), nil
}

func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
