package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Limit: DefaultLimit, Offset: 0}},
		{"negative", Params{Limit: -5, Offset: -3}, Params{Limit: DefaultLimit, Offset: 0}},
		{"capped", Params{Limit: 5000, Offset: 40}, Params{Limit: MaxLimit, Offset: 40}},
		{"passthrough", Params{Limit: 10, Offset: 30}, Params{Limit: 10, Offset: 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
