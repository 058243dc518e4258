// Package mbti maps Myers-Briggs type codes to Big Five training labels.
//
// The table is applied letter by letter and later letters may overwrite earlier
// ones: a J in fourth position replaces the conscientiousness set by the second
// letter, and a P sets neuroticism instead. The rule table is kept as is.
package mbti

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned for anything that is not a four letter code.
var ErrInvalidCode = errors.New("invalid mbti code")

const (
	idxOpenness = iota
	idxConscientiousness
	idxExtraversion
	idxAgreeableness
	idxNeuroticism
)

// ToTraits returns [openness, conscientiousness, extraversion, agreeableness, neuroticism].
func ToTraits(code string) ([5]float64, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 4 {
		return [5]float64{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return [5]float64{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}

	t := [5]float64{0.5, 0.5, 0.5, 0.5, 0.5}

	if c[0] == 'E' {
		t[idxExtraversion] = 0.8
	} else {
		t[idxExtraversion] = 0.2
	}

	if c[1] == 'S' {
		t[idxConscientiousness] = 0.8
	} else {
		t[idxConscientiousness] = 0.3
	}

	if c[2] == 'T' {
		t[idxAgreeableness] = 0.3
	} else {
		t[idxAgreeableness] = 0.8
	}

	if c[3] == 'J' {
		t[idxConscientiousness] = 0.85
	} else {
		t[idxNeuroticism] = 0.7
	}

	t[idxOpenness] = 0.6
	return t, nil
}
