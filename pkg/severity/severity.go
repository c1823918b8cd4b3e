// Package severity maps CVSS v3 scores and vectors to report severities.
package severity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Severity represents the qualitative severity of a finding.
// All values are lowercase strings; Label returns the display form.
type Severity string

const (
	// Critical covers base scores 9.0–10.0.
	Critical Severity = "critical"

	// High covers base scores 7.0–8.9.
	High Severity = "high"

	// Medium covers base scores 4.0–6.9.
	Medium Severity = "medium"

	// Low covers base scores 0.1–3.9.
	Low Severity = "low"

	// None is a 0.0 base score.
	None Severity = "none"
)

// All returns every severity from most to least severe.
func All() []Severity {
	return []Severity{Critical, High, Medium, Low, None}
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low, None:
		return true
	}
	return false
}

// Score returns a numeric rank for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, None=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case None:
		return 1
	default:
		return 0
	}
}

// Label returns the capitalised display name used in reports.
func (s Severity) Label() string {
	switch s {
	case Critical:
		return "Critical"
	case High:
		return "High"
	case Medium:
		return "Medium"
	case Low:
		return "Low"
	case None:
		return "None"
	default:
		return "Unknown"
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// FromScore maps a CVSS v3.1 base score onto the qualitative rating scale.
// Scores outside [0, 10] are clamped.
func FromScore(score float64) Severity {
	switch {
	case score >= 9.0:
		return Critical
	case score >= 7.0:
		return High
	case score >= 4.0:
		return Medium
	case score > 0:
		return Low
	default:
		return None
	}
}

// ErrInvalidVector is returned when a CVSS v3 vector cannot be parsed.
var ErrInvalidVector = errors.New("severity: invalid CVSS v3 vector")

// base metric weights from the CVSS v3.1 specification, section 7.4
var (
	attackVector     = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2}
	attackComplexity = map[string]float64{"L": 0.77, "H": 0.44}
	userInteraction  = map[string]float64{"N": 0.85, "R": 0.62}
	cia              = map[string]float64{"H": 0.56, "L": 0.22, "N": 0}
)

func privilegesRequired(v string, changed bool) (float64, bool) {
	switch v {
	case "N":
		return 0.85, true
	case "L":
		if changed {
			return 0.68, true
		}
		return 0.62, true
	case "H":
		if changed {
			return 0.5, true
		}
		return 0.27, true
	}
	return 0, false
}

var baseMetrics = []string{"AV", "AC", "PR", "UI", "S", "C", "I", "A"}

// ScoreVector computes the CVSS v3.x base score of a vector string such as
// "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H". Temporal and environmental
// metrics are accepted and ignored.
func ScoreVector(vector string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(vector), "/")
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "CVSS:3.") {
		return 0, fmt.Errorf("%w: missing CVSS:3.x prefix in %q", ErrInvalidVector, vector)
	}

	metrics := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, ":")
		if !ok || k == "" || v == "" {
			return 0, fmt.Errorf("%w: malformed metric %q", ErrInvalidVector, p)
		}
		if _, dup := metrics[k]; dup {
			return 0, fmt.Errorf("%w: duplicate metric %q", ErrInvalidVector, k)
		}
		metrics[k] = v
	}
	for _, k := range baseMetrics {
		if _, ok := metrics[k]; !ok {
			return 0, fmt.Errorf("%w: missing base metric %s", ErrInvalidVector, k)
		}
	}

	var changed bool
	switch metrics["S"] {
	case "U":
	case "C":
		changed = true
	default:
		return 0, fmt.Errorf("%w: bad scope %q", ErrInvalidVector, metrics["S"])
	}

	av, ok1 := attackVector[metrics["AV"]]
	ac, ok2 := attackComplexity[metrics["AC"]]
	pr, ok3 := privilegesRequired(metrics["PR"], changed)
	ui, ok4 := userInteraction[metrics["UI"]]
	c, ok5 := cia[metrics["C"]]
	i, ok6 := cia[metrics["I"]]
	a, ok7 := cia[metrics["A"]]
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return 0, fmt.Errorf("%w: unknown metric value in %q", ErrInvalidVector, vector)
	}

	iss := 1 - (1-c)*(1-i)*(1-a)
	var impact float64
	if changed {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0, nil
	}

	exploitability := 8.22 * av * ac * pr * ui
	if changed {
		return roundUp(math.Min(1.08*(impact+exploitability), 10)), nil
	}
	return roundUp(math.Min(impact+exploitability, 10)), nil
}

// FromVector scores a vector and maps it onto the rating scale.
func FromVector(vector string) (Severity, float64, error) {
	score, err := ScoreVector(vector)
	if err != nil {
		return "", 0, err
	}
	return FromScore(score), score, nil
}

// roundUp is the CVSS v3.1 Roundup function (Appendix A): smallest number,
// to one decimal place, that is equal to or higher than its input, computed
// on integers to avoid floating point artefacts.
func roundUp(x float64) float64 {
	n := int64(math.Round(x * 100000))
	if n%10000 == 0 {
		return float64(n) / 100000.0
	}
	return float64(n/10000+1) / 10.0
}
