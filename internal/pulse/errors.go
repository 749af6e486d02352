package pulse

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingMapping is returned when a parameter mapping leaves child parameters unmapped.
	ErrMissingMapping = errors.New("missing parameter mapping")

	// ErrSurplusMapping is returned when a mapping names something the child does not declare.
	ErrSurplusMapping = errors.New("mapping of undeclared name")

	// ErrChannelMappingCollision is returned when two channels end up with the same name.
	ErrChannelMappingCollision = errors.New("channel collision")

	// ErrAmbiguousMapping is returned when an untyped mapping cannot be classified.
	ErrAmbiguousMapping = errors.New("ambiguous mapping")

	// ErrNoSubtemplates is returned when a combinator gets no children.
	ErrNoSubtemplates = errors.New("no subtemplates")

	// ErrInvalidChannels is returned for empty, duplicate or miscounted channel names.
	ErrInvalidChannels = errors.New("invalid channels")

	// ErrInvalidMeasurement is returned for a measurement declaration without a name.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrInvalidInterpolation is returned for an unknown interpolation name.
	ErrInvalidInterpolation = errors.New("invalid interpolation")

	// ErrInvalidPoints is returned for an empty or malformed point list.
	ErrInvalidPoints = errors.New("invalid points")

	// ErrInvalidDuration is returned for a duration that depends on the time variable.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidRepetitionCount is returned for a count that is not a non-negative integer.
	ErrInvalidRepetitionCount = errors.New("invalid repetition count")

	// ErrParameterNotProvided is reported when Instantiate lacks a parameter value.
	ErrParameterNotProvided = errors.New("parameter not provided")

	// ErrNotFinite is reported when an expression evaluates to NaN or an infinity.
	ErrNotFinite = errors.New("value is not finite")

	// ErrNegativeDuration is reported when a leaf evaluates to a negative duration.
	ErrNegativeDuration = errors.New("negative duration")

	// ErrTimeNotIncreasing is reported when point times do not strictly increase.
	ErrTimeNotIncreasing = errors.New("point times not increasing")

	// ErrOutOfBoundsMeasurement is reported when a measurement window leaves [0, duration].
	ErrOutOfBoundsMeasurement = errors.New("measurement window out of bounds")

	// ErrDurationMismatch is reported when channel siblings have different durations.
	ErrDurationMismatch = errors.New("duration mismatch")

	// ErrTooManyWindows is reported when a repetition would tile more measurement windows than allowed.
	ErrTooManyWindows = errors.New("too many measurement windows")
)

// Namespace names one of the three namespaces of a template.
type Namespace string

const (
	NamespaceParameter   Namespace = "parameter"
	NamespaceChannel     Namespace = "channel"
	NamespaceMeasurement Namespace = "measurement"
)

// MissingMappingError reports child parameters left out of a parameter mapping.
type MissingMappingError struct {
	Template string
	Missing  []string
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("%s: parameters %s are not mapped", describe(e.Template), quoteAll(e.Missing))
}

func (e *MissingMappingError) Unwrap() error {
	return ErrMissingMapping
}

// SurplusMappingError reports mapping keys the child does not declare.
type SurplusMappingError struct {
	Template  string
	Namespace Namespace
	Names     []string
	// Suggestions holds declared names similar to each surplus name.
	Suggestions map[string][]string
}

func (e *SurplusMappingError) Error() string {
	msg := fmt.Sprintf("%s: %s mapping of undeclared %s", describe(e.Template), e.Namespace, quoteAll(e.Names))

	var hints []string

	for _, n := range e.Names {
		if s := e.Suggestions[n]; len(s) > 0 {
			hints = append(hints, fmt.Sprintf("%s for %q", quoteAll(s), n))
		}
	}

	if len(hints) > 0 {
		msg += " (did you mean " + strings.Join(hints, "; ") + "?)"
	}

	return msg
}

func (e *SurplusMappingError) Unwrap() error {
	return ErrSurplusMapping
}

// ChannelMappingCollisionError reports a channel name claimed twice.
//
// In a combination First and Second are the indices of the offending children.
// In a mapping they are -1 and Sources holds the child channels mapped onto Channel.
type ChannelMappingCollisionError struct {
	Channel string
	First   int
	Second  int
	Sources []string
}

func (e *ChannelMappingCollisionError) Error() string {
	if len(e.Sources) > 0 {
		return fmt.Sprintf("channels %s are all mapped to %q", quoteAll(e.Sources), e.Channel)
	}

	return fmt.Sprintf("channel %q is defined by subtemplates %d and %d", e.Channel, e.First, e.Second)
}

func (e *ChannelMappingCollisionError) Unwrap() error {
	return ErrChannelMappingCollision
}

// AmbiguousMappingError reports an untyped mapping whose keys fit no single namespace.
type AmbiguousMappingError struct {
	Keys []string
	// Candidates are the namespaces that contain all keys; empty when none does.
	Candidates []Namespace
}

func (e *AmbiguousMappingError) Error() string {
	switch len(e.Candidates) {
	case 0:
		return fmt.Sprintf("mapping of %s matches no namespace", quoteAll(e.Keys))
	case 1:
		return fmt.Sprintf("mapping of %s is a second %s mapping", quoteAll(e.Keys), e.Candidates[0])
	default:
		names := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			names[i] = string(c)
		}

		return fmt.Sprintf("mapping of %s could be a %s mapping", quoteAll(e.Keys), strings.Join(names, " or "))
	}
}

func (e *AmbiguousMappingError) Unwrap() error {
	return ErrAmbiguousMapping
}

// RepetitionCountError reports a repetition count that is not a non-negative integer.
type RepetitionCountError struct {
	Count float64
}

func (e *RepetitionCountError) Error() string {
	return fmt.Sprintf("repetition count %v is not an integer in [0, 2^53]", e.Count)
}

func (e *RepetitionCountError) Unwrap() error {
	return ErrInvalidRepetitionCount
}

// OutOfBoundsMeasurementError reports a measurement window outside its template.
type OutOfBoundsMeasurementError struct {
	Name     string
	Begin    float64
	Length   float64
	Duration float64
}

func (e *OutOfBoundsMeasurementError) Error() string {
	return fmt.Sprintf("measurement %q window [%v, %v] exceeds [0, %v]",
		e.Name, e.Begin, e.Begin+e.Length, e.Duration)
}

func (e *OutOfBoundsMeasurementError) Unwrap() error {
	return ErrOutOfBoundsMeasurement
}

// DurationMismatchError reports a channel sibling whose duration differs from
// the first sibling that could be bound.
type DurationMismatchError struct {
	Index     int
	Reference int
	Expected  float64
	Actual    float64
}

func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("subtemplate %d lasts %v, subtemplate %d lasts %v", e.Index, e.Actual, e.Reference, e.Expected)
}

func (e *DurationMismatchError) Unwrap() error {
	return ErrDurationMismatch
}

func describe(template string) string {
	if template == "" {
		return "mapping"
	}

	return fmt.Sprintf("mapping of %q", template)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}

	return strings.Join(quoted, ", ")
}
