// Package prompt asks the operator for the action, subject, experiment and
// session to work on, re-asking until the answer is one of the known values.
package prompt

import (
	"strconv"
	"strings"
)

// Choice is a selectable action with a human readable label.
type Choice struct {
	Key   string
	Label string
}

// Subcommands in the order they are offered.
var Subcommands = []Choice{
	{Key: "clinical", Label: "Upload clinical EEG data"},
	{Key: "imaging", Label: "Upload imaging data"},
	{Key: "host", Label: "Transfer EEG data from the host PC"},
	{Key: "experiment", Label: "Upload all experimental data"},
}

// Toolbar messages keyed by what was rejected last.
var toolbarTexts = map[string]string{
	"default":    "Press tab to see options",
	"subject":    "Invalid subject",
	"experiment": "Invalid experiment",
	"session":    "Invalid session",
	"action":     "Invalid action",
}

// Labels returns the labels of choices, in order.
func Labels(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}

// MatchChoice resolves input against the labels or keys of choices.
func MatchChoice(input string, choices []Choice) (string, bool) {
	in := strings.TrimSpace(input)
	for _, c := range choices {
		if in == c.Label || in == c.Key {
			return c.Key, true
		}
	}
	return "", false
}

// ValidateSubject accepts a known subject, or anything non-empty when
// allowAny is set.
func ValidateSubject(input string, subjects []string, allowAny bool) (string, bool) {
	in := strings.TrimSpace(input)
	if allowAny && in != "" {
		return in, true
	}
	return in, contains(subjects, in)
}

// ValidateExperiment accepts only known experiments.
func ValidateExperiment(input string, experiments []string) (string, bool) {
	in := strings.TrimSpace(input)
	return in, contains(experiments, in)
}

// ValidateSession parses a session number. Unless allowAny is set it must be
// one of sessions.
func ValidateSession(input string, sessions []int, allowAny bool) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 {
		return -1, false
	}
	if allowAny {
		return n, true
	}
	for _, s := range sessions {
		if s == n {
			return n, true
		}
	}
	return -1, false
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
