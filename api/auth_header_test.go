package api

import (
	"errors"
	"testing"
)

func TestBearerTokenFromString(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer aaa.bbb.ccc", want: "aaa.bbb.ccc"},
		{name: "surrounding spaces", header: "   Bearer aaa.bbb.ccc  ", want: "aaa.bbb.ccc"},
		{name: "empty", header: "", wantErr: errMissingAuthorization},
		{name: "only spaces", header: "    ", wantErr: errMissingAuthorization},
		{name: "missing prefix", header: "aaa.bbb.ccc", wantErr: errBadAuthorization},
		{name: "lowercase prefix", header: "bearer aaa.bbb.ccc", wantErr: errBadAuthorization},
		{name: "prefix without token", header: "Bearer ", wantErr: errBadAuthorization},
		{name: "too few segments", header: "Bearer aaa.bbb", wantErr: errBadAuthorization},
		{name: "too many segments", header: "Bearer a.b.c.d", wantErr: errBadAuthorization},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bearerTokenFromString(tc.header)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("expected token %q, got %q", tc.want, string(got))
			}
		})
	}
}

func TestReadOnlyRoundTrip(t *testing.T) {
	if readOnlyBytes("") != nil {
		t.Fatal("expected nil for empty string")
	}
	if readOnlyString(nil) != "" {
		t.Fatal("expected empty string for nil bytes")
	}
	const s = "aaa.bbb.ccc"
	if got := readOnlyString(readOnlyBytes(s)); got != s {
		t.Fatalf("round trip mismatch: %q", got)
	}
}
