// Package osc implements the terminal's card-control protocol: OSC
// sequence framing, command parsing, and response rendering.
//
// Ported from include/yetty/osc-scanner.h + osc-command.h and their
// src/yetty counterparts.
package osc

// State is a Scanner's position in the OSC framing state machine.
type State uint8

const (
	// StateNormal means not inside an OSC sequence.
	StateNormal State = iota
	// StateEsc means the scanner just saw ESC.
	StateEsc
	// StateInOsc means the scanner is inside an OSC body.
	StateInOsc
	// StateOscEscEnd means the scanner saw ESC inside the body and is
	// waiting to see whether '\' completes an ST terminator.
	StateOscEscEnd
)

const (
	chrEsc = 0x1B
	chrBel = 0x07
)

// Scanner detects OSC sequences (ESC ] ... BEL or ESC ] ... ESC \) in a
// raw byte stream so the caller can withhold large payloads from the
// terminal's normal escape-sequence interpreter without parsing the
// payload itself.
//
//	Normal -> (ESC) -> Esc -> (]) -> InOsc -> (BEL or ESC \) -> Normal
//	                    |                      |
//	                    v (other)              v (ESC)
//	                  Normal                 OscEscEnd -> (\) -> Normal
//	                                                  |
//	                                                  v (other)
//	                                                InOsc
type Scanner struct {
	state          State
	completedCount uint32
}

// Scan advances the state machine over data. Call it once per incoming
// chunk; state persists across calls.
func (s *Scanner) Scan(data []byte) {
	for _, c := range data {
		switch s.state {
		case StateNormal:
			if c == chrEsc {
				s.state = StateEsc
			}
		case StateEsc:
			if c == ']' {
				s.state = StateInOsc
			} else {
				s.state = StateNormal
			}
		case StateInOsc:
			switch c {
			case chrBel:
				s.state = StateNormal
				s.completedCount++
			case chrEsc:
				s.state = StateOscEscEnd
			}
		case StateOscEscEnd:
			switch c {
			case '\\':
				s.state = StateNormal
				s.completedCount++
			case chrEsc:
				// Still looking for the '\' that completes ST; stay put.
			default:
				// The ESC was OSC body data, not the start of ST.
				s.state = StateInOsc
			}
		}
	}
}

// IsInOsc reports whether the scanner is inside an OSC body (including
// the tentative ST-terminator lookahead state).
func (s *Scanner) IsInOsc() bool { return s.state >= StateInOsc }

// NeedsMoreData reports whether the scanner is anywhere but Normal,
// i.e. whether the caller should keep buffering instead of handing the
// chunk to the terminal's normal escape interpreter.
func (s *Scanner) NeedsMoreData() bool { return s.state != StateNormal }

// CurrentState returns the scanner's state, for tests and diagnostics.
func (s *Scanner) CurrentState() State { return s.state }

// Reset returns the scanner to StateNormal without touching the
// completed-sequence count.
func (s *Scanner) Reset() { s.state = StateNormal }

// CompletedCount returns the number of complete OSC sequences seen
// since the last ResetCompletedCount.
func (s *Scanner) CompletedCount() uint32 { return s.completedCount }

// ResetCompletedCount zeroes the completed-sequence counter.
func (s *Scanner) ResetCompletedCount() { s.completedCount = 0 }
