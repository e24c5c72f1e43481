package scoring

import "testing"

func TestComputeKnownInputs(t *testing.T) {
	tests := []struct {
		name    string
		factors Factors
		want    int
	}{
		{
			name:    "empty factors score zero",
			factors: Factors{},
			want:    0,
		},
		{
			name: "best case hits every sub-score ceiling",
			factors: Factors{
				Source:            "referral",
				ActivitiesLast30d: 5,
				EstimatedValue:    10000,
				Email:             "a@b.com",
			},
			want: 80, // 20 + 25 + 25 + 10
		},
		{
			name: "unknown source and bad email only score engagement and value",
			factors: Factors{
				Source:            "cold-call",
				ActivitiesLast30d: 10,
				EstimatedValue:    600,
				Email:             "bad-email",
			},
			want: 30, // 0 + 25 + 5 + 0
		},
		{
			name:    "source match is case-insensitive",
			factors: Factors{Source: "Referral"},
			want:    20,
		},
		{
			name:    "advertisement aliases ad",
			factors: Factors{Source: "ADVERTISEMENT"},
			want:    5,
		},
		{
			name:    "web source",
			factors: Factors{Source: "web"},
			want:    10,
		},
		{
			name:    "engagement is capped at 25",
			factors: Factors{ActivitiesLast30d: 100},
			want:    25,
		},
		{
			name:    "negative activity count floors engagement without touching other sub-scores",
			factors: Factors{Source: "referral", ActivitiesLast30d: -10},
			want:    20,
		},
		{
			name:    "value steps at 2500",
			factors: Factors{EstimatedValue: 2500},
			want:    15,
		},
		{
			name:    "value just under a step keeps the lower score",
			factors: Factors{EstimatedValue: 4999.99},
			want:    15,
		},
		{
			name:    "valid email alone scores ten",
			factors: Factors{Email: "user@example.com"},
			want:    10,
		},
		{
			name:    "email with whitespace is invalid",
			factors: Factors{Email: "a b@c.d"},
			want:    0,
		},
		{
			name:    "email without dot after at is invalid",
			factors: Factors{Email: "a@bc"},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.factors); got != tt.want {
				t.Fatalf("Compute(%+v) = %d, want %d", tt.factors, got, tt.want)
			}
		})
	}
}

func TestComputeIsBounded(t *testing.T) {
	sources := []string{"", "referral", "web", "ad", "something-else"}
	emails := []string{"", "a@b.com", "nonsense"}
	values := []float64{-100, 0, 499, 500, 999, 1000, 2499, 2500, 4999, 5000, 9999, 10000, 1e9}
	activities := []int{-3, 0, 1, 4, 5, 6, 50}

	for _, source := range sources {
		for _, email := range emails {
			for _, value := range values {
				for _, count := range activities {
					f := Factors{Source: source, Email: email, EstimatedValue: value, ActivitiesLast30d: count}
					got := Compute(f)
					if got < 0 || got > 100 {
						t.Fatalf("Compute(%+v) = %d, out of range", f, got)
					}
				}
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	f := Factors{Source: "web", Email: "x@y.z", EstimatedValue: 3000, ActivitiesLast30d: 2}
	first := Compute(f)
	for i := 0; i < 10; i++ {
		if got := Compute(f); got != first {
			t.Fatalf("Compute changed between calls: %d then %d", first, got)
		}
	}
}
