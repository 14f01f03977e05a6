package tasks

import (
	"strings"

	"github.com/drew/rotacheck/internal/model"
)

// LabelMarker separates a task label from its trailing annotation
const LabelMarker = "♦"

// labelField is the tab-delimited field holding the task label
const labelField = 3

// DefaultAliases returns the built-in task grouping table
func DefaultAliases() map[string]string {
	return map[string]string{
		"Induct Line Loader":      "Inbound",
		"Pusher":                  "Inbound",
		"Inbound Dock W/S":        "Inbound",
		"ADTA Container Building": "Stow",
		"Container Building":      "Stow",
	}
}

// Normalizer maps raw labels onto canonical task names.
// The alias table is fixed at construction.
type Normalizer struct {
	aliases map[string]model.CanonicalTask
}

// NewNormalizer builds a normalizer over a copy of the alias table
func NewNormalizer(aliases map[string]string) *Normalizer {
	n := &Normalizer{aliases: make(map[string]model.CanonicalTask, len(aliases))}
	for raw, group := range aliases {
		n.aliases[raw] = model.CanonicalTask(group)
	}
	return n
}

// ExtractLabel pulls the task label out of a tab-delimited label blob
func ExtractLabel(blob string) string {
	fields := strings.Split(blob, "\t")
	if len(fields) <= labelField {
		return string(model.UnknownTask)
	}
	label, _, _ := strings.Cut(fields[labelField], LabelMarker)
	return label
}

// Canonical resolves a bare label through the alias table.
// Unmapped labels pass through unchanged.
func (n *Normalizer) Canonical(label string) model.CanonicalTask {
	if n != nil {
		if group, ok := n.aliases[label]; ok {
			return group
		}
	}
	return model.CanonicalTask(label)
}

// Normalize extracts and resolves the task name of a label blob
func (n *Normalizer) Normalize(blob string) model.CanonicalTask {
	return n.Canonical(ExtractLabel(blob))
}

// Aliases returns the number of alias entries
func (n *Normalizer) Aliases() int {
	if n == nil {
		return 0
	}
	return len(n.aliases)
}
