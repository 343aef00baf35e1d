package proto

import (
	"fmt"
	"sync"
	"time"
)

// MessageID identifies a single message. The wire form is exactly
// twelve ASCII digits, HHMMSSmmmSSS: the sender's wall-clock time of
// day at millisecond resolution followed by a three-digit sequence
// number that disambiguates messages sent within the same millisecond.
//
// The protocol carries only a time of day, never a date. Callers must
// not assume two IDs were generated on the same day.
type MessageID struct {
	TimeOfDay time.Duration // elapsed since midnight, millisecond resolution
	Sequence  int           // 0-999

	// set distinguishes a populated ID from one that was never
	// assigned. "000000000000" is a valid wire ID (midnight, sequence
	// zero), so the field values alone cannot encode absence.
	set bool
}

// ParseMessageID decodes the 12-digit wire form. Parsing is pure: it
// performs no uniqueness checks.
func ParseMessageID(s string) (MessageID, error) {
	if len(s) != 12 {
		return MessageID{}, newError(MalformedMessage, "messageID", "must be exactly 12 digits, got %d characters", len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return MessageID{}, newError(MalformedMessage, "messageID", "must contain only ASCII digits, got %q", s)
		}
	}
	hour := digits(s[0:2])
	minute := digits(s[2:4])
	second := digits(s[4:6])
	millis := digits(s[6:9])
	sequence := digits(s[9:12])
	if hour > 23 {
		return MessageID{}, newError(ValueOutOfRange, "messageID", "hour %d exceeds 23", hour)
	}
	if minute > 59 {
		return MessageID{}, newError(ValueOutOfRange, "messageID", "minute %d exceeds 59", minute)
	}
	if second > 59 {
		return MessageID{}, newError(ValueOutOfRange, "messageID", "second %d exceeds 59", second)
	}
	tod := time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(millis)*time.Millisecond
	return MessageID{TimeOfDay: tod, Sequence: sequence, set: true}, nil
}

// digits converts a run of pre-validated ASCII digits.
func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// String renders the 12-digit wire form. For every ID produced by
// ParseMessageID or an IDGenerator, ParseMessageID(id.String()) == id.
func (id MessageID) String() string {
	ms := id.TimeOfDay.Milliseconds()
	hour := ms / 3_600_000
	ms %= 3_600_000
	minute := ms / 60_000
	ms %= 60_000
	second := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d%02d%02d%03d%03d", hour, minute, second, ms, id.Sequence)
}

// IsZero reports whether the ID was never assigned, that is, neither
// parsed from the wire nor produced by a generator. An ID parsed from
// "000000000000" is not zero. Encoding a message whose self ID is zero
// generates a fresh ID for that encoding call.
func (id MessageID) IsZero() bool {
	return !id.set
}

// IDGenerator issues MessageIDs that are unique within one generator
// instance: no two calls return the same (time of day, sequence) pair.
// The read-modify-write over (last, lastSeq) is serialized with a
// mutex, so a generator may be shared by concurrent senders.
type IDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	last    time.Duration
	lastSeq int
}

// NewIDGenerator returns a generator driven by the system clock.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorWithClock(time.Now)
}

// NewIDGeneratorWithClock returns a generator that reads time from now.
// Tests inject a fake clock here to make sequences deterministic.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now, last: -1}
}

// Next returns the next unique MessageID. While the clock reports the
// same millisecond the sequence increments; when the clock advances the
// sequence resets to zero. The sequence wraps at 1000, which only
// matters if a single process sends a thousand messages in one
// millisecond.
func (g *IDGenerator) Next() MessageID {
	g.mu.Lock()
	defer g.mu.Unlock()

	tod := timeOfDay(g.now())
	if tod == g.last {
		g.lastSeq = (g.lastSeq + 1) % 1000
	} else {
		g.last = tod
		g.lastSeq = 0
	}
	return MessageID{TimeOfDay: tod, Sequence: g.lastSeq, set: true}
}

func timeOfDay(t time.Time) time.Duration {
	hour, minute, second := t.Clock()
	return time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(t.Nanosecond()/int(time.Millisecond))*time.Millisecond
}

// defaultGenerator backs GenerateID and ID auto-generation at encode
// time. Code that needs deterministic IDs should use its own generator.
var defaultGenerator = NewIDGenerator()

// GenerateID returns a fresh ID from the package-level generator.
func GenerateID() MessageID {
	return defaultGenerator.Next()
}
