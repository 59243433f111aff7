package leaderboard

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"strings"
)

var (
	ErrUnknownPolicy = errors.New("unknown scoring policy")
)

const (
	PolicyUniform  = "uniform"
	PolicyWeighted = "weighted"
)

// Policy turns a subject's totals into a single score.
type Policy interface {
	Name() string
	Score(totals metric.Totals, slugs []string) float64
}

// Uniform sums every known slug.
type Uniform struct{}

func (Uniform) Name() string {
	return PolicyUniform
}

func (Uniform) Score(totals metric.Totals, slugs []string) float64 {
	var score float64
	for _, slug := range slugs {
		score += totals[slug]
	}
	return score
}

// Weighted is the caffeine formula: RED_BULL counts double, COFFEE once,
// everything else is ignored.
type Weighted struct{}

func (Weighted) Name() string {
	return PolicyWeighted
}

func (Weighted) Score(totals metric.Totals, _ []string) float64 {
	return 2*totals["RED_BULL"] + totals["COFFEE"]
}

func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyUniform:
		return Uniform{}, nil
	case PolicyWeighted:
		return Weighted{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
