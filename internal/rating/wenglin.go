// Package rating estimates participant skill with a Weng-Lin Bayesian
// approximation (the Bradley-Terry full-pairing model), which handles
// multi-team, multi-player rounds the way British Parliamentary debates are
// scored. Ratings exist only to seed the draw allocator with a strength
// estimate; they are never stored long-term or shown to participants, which
// also leaves us free to swap the algorithm later.
package rating

import "math"

const (
	DefaultMu    = 25.0
	DefaultSigma = 25.0 / 3.0
)

// Rating is a skill estimate: Mu the mean, Sigma the uncertainty.
type Rating struct {
	Mu    float64
	Sigma float64
}

// New returns the "no evidence" rating every participant starts from.
func New() Rating {
	return Rating{Mu: DefaultMu, Sigma: DefaultSigma}
}

// Config holds the model parameters.
type Config struct {
	// Beta is the skill-distance scale (distance guaranteeing roughly an
	// 80% win chance for the stronger side).
	Beta float64
	// UncertaintyTolerance is the floor applied to the multiplicative
	// sigma update so uncertainty never collapses to zero.
	UncertaintyTolerance float64
}

func DefaultConfig() Config {
	return Config{Beta: 25.0 / 6.0, UncertaintyTolerance: 1e-6}
}

// MultiTeam applies one rated round to the given teams. teams[i] holds the
// current ratings of team i's players; ranks[i] is team i's placement in the
// round, zero-based with 0 the winner. Equal ranks are treated as a draw
// between those teams. The returned slice is shaped like teams and holds the
// updated ratings; inputs are not modified.
func MultiTeam(teams [][]Rating, ranks []int, cfg Config) [][]Rating {
	n := len(teams)
	teamMu := make([]float64, n)
	teamSigmaSq := make([]float64, n)
	for i, team := range teams {
		for _, p := range team {
			teamMu[i] += p.Mu
			teamSigmaSq[i] += p.Sigma * p.Sigma
		}
	}

	twoBetaSq := 2 * cfg.Beta * cfg.Beta
	out := make([][]Rating, n)
	for i, team := range teams {
		var omega, delta float64
		for q := 0; q < n; q++ {
			if q == i {
				continue
			}
			c := math.Sqrt(teamSigmaSq[i] + teamSigmaSq[q] + twoBetaSq)
			eI := math.Exp(teamMu[i] / c)
			eQ := math.Exp(teamMu[q] / c)
			p := eI / (eI + eQ)

			var score float64
			switch {
			case ranks[q] > ranks[i]:
				score = 1
			case ranks[q] == ranks[i]:
				score = 0.5
			}

			omega += teamSigmaSq[i] / c * (score - p)
			gamma := math.Sqrt(teamSigmaSq[i]) / c
			delta += gamma * teamSigmaSq[i] / (c * c) * p * (1 - p)
		}

		updated := make([]Rating, len(team))
		for k, p := range team {
			sigSq := p.Sigma * p.Sigma
			adj := 1 - sigSq/teamSigmaSq[i]*delta
			if adj < cfg.UncertaintyTolerance {
				adj = cfg.UncertaintyTolerance
			}
			updated[k] = Rating{
				Mu:    p.Mu + sigSq/teamSigmaSq[i]*omega,
				Sigma: math.Sqrt(sigSq * adj),
			}
		}
		out[i] = updated
	}
	return out
}
