package domain

import "strings"

// FlavorRound is one mandatory choice step for a dish, e.g. "Spice" with
// options "mild", "medium", "hot".
type FlavorRound struct {
	Number  int      `json:"round_number"`
	Name    string   `json:"round_name"`
	Options []string `json:"options"`
}

// FlavorChoice records the option picked for a round. It is stored on the
// order item so later menu edits never change what was ordered.
type FlavorChoice struct {
	Round  string `json:"round"`
	Choice string `json:"choice"`
}

// NormalizeRounds trims names, numbers the rounds from 1 and rejects blank
// names, empty option sets and duplicate options.
func NormalizeRounds(rounds []FlavorRound) ([]FlavorRound, error) {
	out := make([]FlavorRound, 0, len(rounds))
	seenRound := map[string]bool{}
	for i, r := range rounds {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, Errorf(KindInvalidInput, "flavor round %d has no name", i+1)
		}
		if seenRound[name] {
			return nil, Errorf(KindInvalidInput, "flavor round %q defined twice", name)
		}
		seenRound[name] = true

		if len(r.Options) == 0 {
			return nil, Errorf(KindInvalidInput, "flavor round %q needs at least one option", name)
		}
		seen := map[string]bool{}
		opts := make([]string, 0, len(r.Options))
		for _, o := range r.Options {
			o = strings.TrimSpace(o)
			if o == "" {
				return nil, Errorf(KindInvalidInput, "flavor round %q has a blank option", name)
			}
			if seen[o] {
				return nil, Errorf(KindInvalidInput, "flavor round %q lists %q twice", name, o)
			}
			seen[o] = true
			opts = append(opts, o)
		}
		out = append(out, FlavorRound{Number: i + 1, Name: name, Options: opts})
	}
	return out, nil
}

// MatchChoices checks that exactly one defined option is chosen per round and
// returns the choices in round order.
func MatchChoices(rounds []FlavorRound, choices []FlavorChoice) ([]FlavorChoice, error) {
	if len(choices) != len(rounds) {
		return nil, Errorf(KindFlavorSelectionInvalid, "expected %d flavor choices, got %d", len(rounds), len(choices))
	}
	picked := make(map[string]string, len(choices))
	for _, c := range choices {
		round := strings.TrimSpace(c.Round)
		if _, dup := picked[round]; dup {
			return nil, Errorf(KindFlavorSelectionInvalid, "flavor round %q chosen twice", round)
		}
		picked[round] = strings.TrimSpace(c.Choice)
	}

	out := make([]FlavorChoice, 0, len(rounds))
	for _, r := range rounds {
		choice, ok := picked[r.Name]
		if !ok {
			return nil, Errorf(KindFlavorSelectionInvalid, "missing choice for flavor round %q", r.Name)
		}
		if !containsString(r.Options, choice) {
			return nil, Errorf(KindFlavorSelectionInvalid, "%q is not an option of %q", choice, r.Name)
		}
		out = append(out, FlavorChoice{Round: r.Name, Choice: choice})
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
