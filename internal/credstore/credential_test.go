package credstore

import (
	"testing"
	"time"
)

func TestCredential_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}

	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{
			name: "no expiry recorded is expired",
			cred: Credential{AccessToken: "tok"},
			want: true,
		},
		{
			name: "expiry well in the future is valid",
			cred: Credential{AccessToken: "tok", ExpiresAt: at(time.Hour)},
			want: false,
		},
		{
			name: "expiry inside refresh buffer is expired",
			cred: Credential{AccessToken: "tok", ExpiresAt: at(2 * time.Minute)},
			want: true,
		},
		{
			name: "expiry exactly at buffer boundary is expired",
			cred: Credential{AccessToken: "tok", ExpiresAt: at(DefaultRefreshBuffer)},
			want: true,
		},
		{
			name: "one second past the boundary is valid",
			cred: Credential{AccessToken: "tok", ExpiresAt: at(DefaultRefreshBuffer + time.Second)},
			want: false,
		},
		{
			name: "expiry in the past is expired",
			cred: Credential{AccessToken: "tok", ExpiresAt: at(-time.Hour)},
			want: true,
		},
		{
			name: "custom buffer is honored",
			cred: Credential{
				AccessToken:   "tok",
				ExpiresAt:     at(7 * time.Minute),
				RefreshBuffer: 10 * time.Minute,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredential_Buffer(t *testing.T) {
	cred := Credential{}
	if got := cred.Buffer(); got != DefaultRefreshBuffer {
		t.Errorf("expected default buffer, got %v", got)
	}

	cred.RefreshBuffer = time.Minute
	if got := cred.Buffer(); got != time.Minute {
		t.Errorf("expected 1m buffer, got %v", got)
	}
}

func TestCredential_Clone(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	orig := &Credential{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    &exp,
	}

	cp := orig.Clone()
	cp.AccessToken = "changed"
	*cp.ExpiresAt = cp.ExpiresAt.Add(time.Hour)

	if orig.AccessToken != "a" {
		t.Error("clone shares access token storage")
	}
	if !orig.ExpiresAt.Equal(exp) {
		t.Error("clone shares expiry storage")
	}

	var nilCred *Credential
	if nilCred.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}
