package model

import (
	"strings"
	"testing"
	"time"
)

func TestPayloadRoundTrip(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	payloads := []OpPayload{
		CompleteTaskPayload{TaskID: "t1"},
		CreateTaskPayload{TaskID: "t2", HouseholdID: "h1", Title: "Dishes", DueDate: start, AssignedUserID: "u1", Status: TaskOpen},
		CreateChorePayload{ChoreID: "c1", HouseholdID: "h1", Name: "Vacuum", Frequency: FreqWeekly, RotationMemberIDs: []string{"m1", "m2"}, StartDate: &start},
		UpdateChorePayload{ChoreID: "c1", Name: "Vacuum upstairs", Frequency: FreqBiweekly, RotationMemberIDs: []string{"m2"}, Active: true},
		ArchiveChorePayload{ChoreID: "c1"},
		CreateHouseholdPayload{HouseholdID: "h1", Name: "The Burrow"},
		JoinHouseholdPayload{JoinCode: "ABC234"},
	}

	for _, p := range payloads {
		opType, raw, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("encode %T: %v", p, err)
		}
		if opType != p.OpType() {
			t.Errorf("encoded type = %q, want %q", opType, p.OpType())
		}

		decoded, err := DecodePayload(opType, raw)
		if err != nil {
			t.Fatalf("decode %s: %v", opType, err)
		}
		if decoded.OpType() != opType {
			t.Errorf("decoded %s as %s", opType, decoded.OpType())
		}
	}
}

func TestDecodePreservesFields(t *testing.T) {
	_, raw, err := EncodePayload(CreateChorePayload{
		ChoreID:           "c1",
		HouseholdID:       "h1",
		Name:              "Vacuum",
		Frequency:         FreqWeekly,
		RotationMemberIDs: []string{"m2", "m1"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodePayload(OpCreateChore, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := decoded.(*CreateChorePayload)
	if !ok {
		t.Fatalf("decoded type = %T", decoded)
	}
	if p.ChoreID != "c1" || p.Name != "Vacuum" || p.Frequency != FreqWeekly {
		t.Errorf("decoded = %+v", p)
	}
	if len(p.RotationMemberIDs) != 2 || p.RotationMemberIDs[0] != "m2" {
		t.Errorf("rotation = %v, order lost", p.RotationMemberIDs)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodePayload("LAUNCH_ROCKET", []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "LAUNCH_ROCKET") {
		t.Errorf("error %q should name the unknown type", err)
	}
}

func TestFrequencyAddTo(t *testing.T) {
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		freq Frequency
		want time.Time
	}{
		{FreqDaily, time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)},
		{FreqWeekly, time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC)},
		{FreqBiweekly, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)},
		{FreqMonthly, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := tc.freq.AddTo(base); !got.Equal(tc.want) {
			t.Errorf("%s.AddTo = %v, want %v", tc.freq, got, tc.want)
		}
	}

	// Jan 31 + monthly normalizes per calendar arithmetic.
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := FreqMonthly.AddTo(jan31); got.Month() != time.March {
		t.Errorf("Jan 31 + monthly = %v, want a March date", got)
	}
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range []Frequency{FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Frequency("fortnightly").Valid() {
		t.Error("unknown frequency reported valid")
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2026, 3, 10, 23, 45, 0, 0, loc)
	got := DateOnly(in)

	// 23:45 UTC+9 is 14:45 UTC on the same calendar day.
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOnly = %v, want %v", got, want)
	}
}
