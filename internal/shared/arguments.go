package shared

import (
	"fmt"
	"strconv"
	"strings"
)

const invalidInputTemplateConstant = "invalid %s %q: expected a non-negative integer"

// InvalidInputError reports a positional argument that does not parse as an identifier.
type InvalidInputError struct {
	Argument string
	Value    string
}

// Error describes the invalid argument.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.Argument, inputError.Value)
}

// ParseIdentifier parses an issue or pull request id given on the command line.
func ParseIdentifier(argumentName string, value string) (uint64, error) {
	identifier, parseError := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if parseError != nil {
		return 0, InvalidInputError{Argument: argumentName, Value: value}
	}
	return identifier, nil
}
