package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator checks a numeric query parameter and describes the rule it enforces.
type ParamValidator struct {
	test func(valueToTest int64) bool
	rule string
}

func newComparisonValidator(valueInClosure int64, rule string, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return ParamValidator{
		test: func(argValue int64) bool {
			return compareFn(argValue, valueInClosure)
		},
		rule: rule,
	}
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	rule := fmt.Sprintf("greater than %d", valToCompareAgainst)
	if valToCompareAgainst == 0 {
		rule = "positive"
	}
	return newComparisonValidator(valToCompareAgainst, rule, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// ParseValidateGt reads the int32 query parameter key and requires it to be greater than value.
// On failure it has already written a 400 response.
func ParseValidateGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, value int64) (int32, bool) {
	return parseValidate(r, w, logger, key, gt(value))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	if !pValidator.test(intValue) {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("The value of %s field must be %s", key, pValidator.rule))
		return 0, false
	}
	return int32(intValue), true
}
