package panel

import "testing"

// TestStatusExclusion verifies exclusion is a pure function of the status
// category and the rank threshold. At the default threshold ranks 1-3 are
// excluded and 4-7 included.
func TestStatusExclusion(t *testing.T) {
	cases := []struct {
		status   StatusCategory
		excluded bool
	}{
		{StatusDiscriminated, true},
		{StatusPowerless, true},
		{StatusSelfExclusion, true},
		{StatusJuniorPartner, false},
		{StatusSeniorPartner, false},
		{StatusDominant, false},
		{StatusMonopoly, false},
	}

	for _, tc := range cases {
		if got := tc.status.ExcludedAt(ExcludedRankThreshold); got != tc.excluded {
			t.Errorf("%s: ExcludedAt(%d) = %t, want %t", tc.status, ExcludedRankThreshold, got, tc.excluded)
		}
	}
}

// TestStatusExclusionThreshold verifies the boundary moves with the threshold:
// a rank-5 senior partner is included at the default but excluded at 5.
func TestStatusExclusionThreshold(t *testing.T) {
	cases := []struct {
		status    StatusCategory
		threshold int
		excluded  bool
	}{
		{StatusSeniorPartner, 5, true},
		{StatusSeniorPartner, 4, false},
		{StatusDominant, 5, false},
		{StatusDiscriminated, 1, true},
		{StatusPowerless, 1, false},
		{StatusMonopoly, 7, true},
	}

	for _, tc := range cases {
		if got := tc.status.ExcludedAt(tc.threshold); got != tc.excluded {
			t.Errorf("%s: ExcludedAt(%d) = %t, want %t", tc.status, tc.threshold, got, tc.excluded)
		}
	}
}

func TestStatusFromRank(t *testing.T) {
	for rank := 1; rank <= 7; rank++ {
		status, err := StatusFromRank(rank)
		if err != nil {
			t.Fatalf("StatusFromRank(%d) unexpected error: %v", rank, err)
		}
		if status.Rank() != rank {
			t.Errorf("StatusFromRank(%d).Rank() = %d", rank, status.Rank())
		}
	}

	for _, rank := range []int{0, 8, -1} {
		if _, err := StatusFromRank(rank); err == nil {
			t.Errorf("StatusFromRank(%d) expected error", rank)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  StatusCategory
	}{
		{"DISCRIMINATED", StatusDiscriminated},
		{"powerless", StatusPowerless},
		{"Self-Exclusion", StatusSelfExclusion},
		{"SELF EXCLUSION", StatusSelfExclusion},
		{"JUNIOR_PARTNER", StatusJuniorPartner},
		{"junior partner", StatusJuniorPartner},
		{"MONOPOLY", StatusMonopoly},
	}

	for _, tc := range cases {
		got, err := ParseStatus(tc.input)
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}

	if _, err := ParseStatus("OVERLORD"); err == nil {
		t.Error("ParseStatus with unknown label expected error")
	}
}
