package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderTemplateConstant = "`<%s>`"
	choiceSeparatorConstant           = "|"
	invalidChoiceTemplateConstant     = "invalid --%s value %q (expected one of %s)"
)

// InvalidChoiceError reports a flag value outside its ChoiceSet.
type InvalidChoiceError struct {
	FlagName string
	Value    string
	Choices  []string
}

// Error describes the rejected value and the accepted ones.
func (choiceError InvalidChoiceError) Error() string {
	return fmt.Sprintf(invalidChoiceTemplateConstant, choiceError.FlagName, choiceError.Value, strings.Join(choiceError.Choices, choiceSeparatorConstant))
}

// ChoiceSet is the closed list of values a string flag accepts. Matching ignores case and surrounding whitespace.
type ChoiceSet struct {
	flagName      string
	defaultChoice string
	choices       []string
}

// NewChoiceSet builds a ChoiceSet, dropping blank and duplicate choices.
func NewChoiceSet(flagName string, defaultChoice string, choices ...string) ChoiceSet {
	normalizedChoices := make([]string, 0, len(choices))
	for _, choice := range choices {
		normalizedChoice := normalizeChoice(choice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, duplicate := indexOf(normalizedChoices, normalizedChoice); duplicate {
			continue
		}
		normalizedChoices = append(normalizedChoices, normalizedChoice)
	}
	return ChoiceSet{flagName: flagName, defaultChoice: normalizeChoice(defaultChoice), choices: normalizedChoices}
}

// Usage renders the choices as a `<a|B|c>` placeholder with the default upper-cased, followed by the description.
func (choiceSet ChoiceSet) Usage(description string) string {
	displayed := make([]string, len(choiceSet.choices))
	for choiceIndex, choice := range choiceSet.choices {
		displayed[choiceIndex] = choice
		if choice == choiceSet.defaultChoice {
			displayed[choiceIndex] = strings.ToUpper(choice)
		}
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplateConstant, strings.Join(displayed, choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return placeholder + " " + trimmedDescription
}

// Canonical returns the normalized form of value, or InvalidChoiceError when the set does not contain it.
func (choiceSet ChoiceSet) Canonical(value string) (string, error) {
	normalizedValue := normalizeChoice(value)
	if _, found := indexOf(choiceSet.choices, normalizedValue); !found {
		return "", InvalidChoiceError{FlagName: choiceSet.flagName, Value: value, Choices: choiceSet.choices}
	}
	return normalizedValue, nil
}

func normalizeChoice(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}

func indexOf(choices []string, candidate string) (int, bool) {
	for choiceIndex, choice := range choices {
		if choice == candidate {
			return choiceIndex, true
		}
	}
	return -1, false
}
