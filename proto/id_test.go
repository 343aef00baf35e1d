package proto

import (
	"sync"
	"testing"
	"time"
)

func TestParseMessageID_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"000000000000",
		"134559123042",
		"235959999999",
		"010203004005",
	} {
		id, err := ParseMessageID(s)
		if err != nil {
			t.Fatalf("ParseMessageID(%q) failed: %v", s, err)
		}
		if got := id.String(); got != s {
			t.Errorf("round trip of %q produced %q", s, got)
		}
	}
}

func TestParseMessageID_ComponentSplit(t *testing.T) {
	id, err := ParseMessageID("134559123042")
	if err != nil {
		t.Fatalf("ParseMessageID failed: %v", err)
	}
	wantTime := 13*time.Hour + 45*time.Minute + 59*time.Second + 123*time.Millisecond
	if id.TimeOfDay != wantTime {
		t.Errorf("Expected time of day %v, got %v", wantTime, id.TimeOfDay)
	}
	if id.Sequence != 42 {
		t.Errorf("Expected sequence 42, got %d", id.Sequence)
	}
}

func TestParseMessageID_Malformed(t *testing.T) {
	for _, s := range []string{"", "12345678901", "1234567890123", "12345678901x", "1234567890.2"} {
		_, err := ParseMessageID(s)
		if err == nil {
			t.Errorf("Expected error for %q", s)
			continue
		}
		if !IsKind(err, MalformedMessage) {
			t.Errorf("Expected MalformedMessage for %q, got %v", s, err)
		}
	}
}

func TestParseMessageID_OutOfRange(t *testing.T) {
	for _, s := range []string{"240000000000", "126000000000", "123460000000"} {
		_, err := ParseMessageID(s)
		if err == nil {
			t.Errorf("Expected error for %q", s)
			continue
		}
		if !IsKind(err, ValueOutOfRange) {
			t.Errorf("Expected ValueOutOfRange for %q, got %v", s, err)
		}
	}
}

func TestMessageID_IsZero(t *testing.T) {
	if !(MessageID{}).IsZero() {
		t.Error("Expected zero value to report IsZero")
	}
	id, _ := ParseMessageID("000000000001")
	if id.IsZero() {
		t.Error("Expected sequence 1 to not report IsZero")
	}
	midnight, err := ParseMessageID("000000000000")
	if err != nil {
		t.Fatalf("ParseMessageID failed: %v", err)
	}
	if midnight.IsZero() {
		t.Error("Expected the parsed midnight ID to not report IsZero")
	}
	gen := NewIDGeneratorWithClock(func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	})
	if gen.Next().IsZero() {
		t.Error("Expected a generated midnight ID to not report IsZero")
	}
}

func TestIDGenerator_SameMillisecondIncrementsSequence(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 45, 59, 123_000_000, time.UTC)
	gen := NewIDGeneratorWithClock(func() time.Time { return now })

	first := gen.Next()
	second := gen.Next()
	third := gen.Next()

	if first.Sequence != 0 || second.Sequence != 1 || third.Sequence != 2 {
		t.Errorf("Expected sequences 0,1,2, got %d,%d,%d", first.Sequence, second.Sequence, third.Sequence)
	}
	if first.TimeOfDay != second.TimeOfDay || second.TimeOfDay != third.TimeOfDay {
		t.Error("Expected identical time of day for a fixed clock")
	}
}

func TestIDGenerator_ClockAdvanceResetsSequence(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 45, 59, 123_000_000, time.UTC)
	gen := NewIDGeneratorWithClock(func() time.Time { return now })

	gen.Next()
	gen.Next()
	now = now.Add(time.Millisecond)
	id := gen.Next()

	if id.Sequence != 0 {
		t.Errorf("Expected sequence reset to 0 after clock advance, got %d", id.Sequence)
	}
}

func TestIDGenerator_FirstCallAtMidnight(t *testing.T) {
	// Midnight's time of day collides with the generator's zero state;
	// the first ID must still start at sequence 0.
	midnight := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	gen := NewIDGeneratorWithClock(func() time.Time { return midnight })

	if id := gen.Next(); id.Sequence != 0 {
		t.Errorf("Expected first sequence 0, got %d", id.Sequence)
	}
}

func TestIDGenerator_ConcurrentUniqueness(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 45, 59, 123_000_000, time.UTC)
	gen := NewIDGeneratorWithClock(func() time.Time { return now })

	const workers = 10
	const perWorker = 50

	var wg sync.WaitGroup
	results := make(chan MessageID, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- gen.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[MessageID]struct{})
	for id := range results {
		if _, dup := seen[id]; dup {
			t.Fatalf("Duplicate ID generated: %v", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestGeneratedID_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 59, 59, 999_000_000, time.UTC)
	gen := NewIDGeneratorWithClock(func() time.Time { return now })

	id := gen.Next()
	parsed, err := ParseMessageID(id.String())
	if err != nil {
		t.Fatalf("Failed to parse generated ID %q: %v", id.String(), err)
	}
	if parsed != id {
		t.Errorf("Round trip mismatch: generated %v, parsed %v", id, parsed)
	}
}
