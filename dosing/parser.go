package dosing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Record is a fully validated dose. Amount is post-conversion: mass units are
// collapsed to mg, ml passes through. Route is always a canonical route name.
type Record struct {
	Substance string  `json:"substance"`
	Amount    float64 `json:"amount"`
	Unit      Unit    `json:"unit"`
	Route     string  `json:"route"`
}

const (
	// amountCeiling is an absolute sanity ceiling in the as-typed unit.
	amountCeiling = 1_000_000

	// Mass doses must land inside this mg band after conversion.
	minDoseMg = 0.001
	maxDoseMg = 100_000

	minSubstanceLen = 2
	maxSubstanceLen = 50
)

const (
	exampleStandard = "200mg caffeine oral"
	exampleVerb     = "@ate 30mg aspirin"
)

// Pre-compiled grammar patterns, matched against trimmed, lower-cased,
// whitespace-collapsed input.
//
// Standard grammar: <amount><unit> <substance...> <route>. The unit token is
// captured loosely so a bad unit reports a unit error instead of a format
// error. The substance group is non-greedy so the final whitespace-delimited
// token is always the route, leaving multi-word substances intact.
//
// Verb grammar: <@verb> <amount><unit> <substance...>. No trailing route
// token; the verb encodes the route.
var (
	standardPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-zμ]+)\s+([0-9a-zμ][0-9a-zμ ,.()/-]*?)\s+([a-z][a-z-]*)$`)
	verbPattern     = regexp.MustCompile(`^(@[a-z]+)\s+(\d+(?:\.\d+)?)([a-zμ]+)\s+([0-9a-zμ][0-9a-zμ ,.()/-]*)$`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Parse turns a dose-shorthand string into a Record. On failure the returned
// error is always a *ParseError carrying exactly one taxonomy tag.
func Parse(input string) (*Record, error) {
	normalized := spacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), " ")
	if normalized == "" {
		return nil, &ParseError{
			Kind:       ErrFormat,
			Message:    "dose string is empty",
			Suggestion: "type an amount, a substance and a route",
			Example:    exampleStandard,
		}
	}

	var rawAmount, rawUnit, rawSubstance, route string

	if m := standardPattern.FindStringSubmatch(normalized); m != nil {
		rawAmount, rawUnit, rawSubstance = m[1], m[2], m[3]
		resolved, ok := ResolveRoute(m[4])
		if !ok {
			return nil, unknownRouteError(m[4], false)
		}
		route = resolved
	} else if m := verbPattern.FindStringSubmatch(normalized); m != nil {
		resolved, ok := ResolveVerb(m[1])
		if !ok {
			return nil, unknownRouteError(m[1], true)
		}
		route = resolved
		rawAmount, rawUnit, rawSubstance = m[2], m[3], m[4]
	} else {
		return nil, &ParseError{
			Kind:       ErrFormat,
			Message:    "unrecognized dose string format",
			Suggestion: "use 'amount[unit] substance route' or '@verb amount[unit] substance'",
			Example:    exampleStandard + "  |  " + exampleVerb,
		}
	}

	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, &ParseError{
			Kind:       ErrAmount,
			Message:    fmt.Sprintf("amount %q is not a valid number", rawAmount),
			Suggestion: "use a plain decimal amount",
			Example:    exampleStandard,
		}
	}
	if amount <= 0 {
		return nil, &ParseError{
			Kind:    ErrAmount,
			Message: "amount must be greater than 0",
			Example: exampleStandard,
		}
	}
	if amount >= amountCeiling {
		return nil, &ParseError{
			Kind:       ErrAmount,
			Message:    fmt.Sprintf("amount %s%s is unreasonably high", rawAmount, rawUnit),
			Suggestion: "check the amount and unit",
		}
	}

	unit, ok := CanonicalUnit(rawUnit)
	if !ok {
		return nil, &ParseError{
			Kind:       ErrUnit,
			Message:    fmt.Sprintf("unknown unit %q", rawUnit),
			Suggestion: "supported units: mg, g, ug, ml",
			Example:    exampleStandard,
		}
	}

	converted, err := ConvertToMg(amount, unit)
	if err != nil {
		// Unreachable after CanonicalUnit, kept as the residual catch-all.
		return nil, &ParseError{Kind: ErrUnknown, Message: err.Error()}
	}
	if unit != UnitMl {
		if converted < minDoseMg {
			return nil, &ParseError{
				Kind:       ErrAmount,
				Message:    fmt.Sprintf("%s%s is an unusually low dose", rawAmount, unit),
				Suggestion: "check the amount and unit",
			}
		}
		if converted > maxDoseMg {
			return nil, &ParseError{
				Kind:       ErrAmount,
				Message:    fmt.Sprintf("%s%s is an unusually high dose", rawAmount, unit),
				Suggestion: "check the amount and unit",
			}
		}
	}

	substance := strings.TrimSpace(rawSubstance)
	if len(substance) < minSubstanceLen || len(substance) > maxSubstanceLen {
		return nil, &ParseError{
			Kind:    ErrSubstance,
			Message: fmt.Sprintf("substance name must be between %d and %d characters", minSubstanceLen, maxSubstanceLen),
		}
	}

	return &Record{
		Substance: substance,
		Amount:    converted,
		Unit:      StorageUnit(unit),
		Route:     route,
	}, nil
}

func unknownRouteError(token string, verb bool) *ParseError {
	noun := "route"
	example := exampleStandard
	if verb {
		noun = "verb"
		example = exampleVerb
	}
	return &ParseError{
		Kind:       ErrRoute,
		Message:    fmt.Sprintf("unknown %s %q", noun, token),
		Suggestion: "common routes: " + strings.Join(CommonRoutes, ", "),
		Example:    example,
	}
}
