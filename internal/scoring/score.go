// Package scoring computes the 0-100 lead quality score from four
// independent sub-scores: source, engagement, estimated value, and email
// validity. Compute is pure and total; zero values are the lowest-scoring
// case, so callers can pass partial data without preprocessing.
package scoring

import (
	"regexp"
	"strings"
)

// Factors carries the lead attributes that contribute to the score.
type Factors struct {
	Source            string
	Email             string
	EstimatedValue    float64
	ActivitiesLast30d int
}

// Permissive shape check: one "@", at least one "." after it, no whitespace.
// Intentionally not RFC grammar validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Compute returns the lead score, clamped to [0, 100].
func Compute(f Factors) int {
	score := sourceScore(f.Source)
	score += engagementScore(f.ActivitiesLast30d)
	score += valueScore(f.EstimatedValue)
	score += emailScore(f.Email)
	return clamp(score, 0, 100)
}

// EmailValid reports whether the email passes the permissive shape check
// shared by scoring and import validation.
func EmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// sourceScore: referral=20, web=10, ad=5, anything else 0.
func sourceScore(source string) int {
	switch strings.ToLower(source) {
	case "referral":
		return 20
	case "web":
		return 10
	case "ad", "advertisement":
		return 5
	default:
		return 0
	}
}

// engagementScore: min(activities * 5, 25).
func engagementScore(activities int) int {
	score := activities * 5
	if score > 25 {
		return 25
	}
	if score < 0 {
		return 0
	}
	return score
}

// valueScore is a fixed step table, not a derived distribution.
func valueScore(estimatedValue float64) int {
	switch {
	case estimatedValue >= 10000:
		return 25
	case estimatedValue >= 5000:
		return 20
	case estimatedValue >= 2500:
		return 15
	case estimatedValue >= 1000:
		return 10
	case estimatedValue >= 500:
		return 5
	default:
		return 0
	}
}

func emailScore(email string) int {
	if email == "" {
		return 0
	}
	if EmailValid(email) {
		return 10
	}
	return 0
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
