// ABOUTME: Codec for workflow state embedded in free text between [JSON] markers
// ABOUTME: Decodes the first marker region and splices updated state back losslessly
package workstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// The state lives between literal [JSON]...[/JSON] markers inside the
// description text. First match only, non-greedy, may span lines.
var markerRegion = regexp.MustCompile(`(?s)\[JSON\](.*?)\[/JSON\]`)

// ErrNoStateRegion means Encode was asked to write into text with no marker
// pair. The bot only rewrites existing regions; templates author them.
var ErrNoStateRegion = errors.New("workstate: no [JSON] region in text")

// MalformedStateError means a marker region exists but its content is not
// valid JSON. Callers treat this as "no usable state" rather than a fatal
// failure so one bad template cannot take down webhook processing.
type MalformedStateError struct {
	Err error
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("workstate: malformed embedded state: %v", e.Err)
}

func (e *MalformedStateError) Unwrap() error { return e.Err }

// Decode extracts the embedded state from text. A missing marker region is
// not an error: it returns (nil, nil), meaning the item carries no workflow
// state.
func Decode(text string) (*State, error) {
	m := markerRegion.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	var state State
	if err := json.Unmarshal([]byte(m[1]), &state); err != nil {
		return nil, &MalformedStateError{Err: err}
	}
	return &state, nil
}

// Encode serializes state into the first marker region of text, leaving every
// byte outside the region untouched. Fails with ErrNoStateRegion when the
// text has no markers.
func Encode(text string, state *State) (string, error) {
	loc := markerRegion.FindStringIndex(text)
	if loc == nil {
		return "", ErrNoStateRegion
	}
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("workstate: encoding state: %w", err)
	}
	return text[:loc[0]] + "[JSON]" + string(encoded) + "[/JSON]" + text[loc[1]:], nil
}
