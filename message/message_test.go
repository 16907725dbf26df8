package message

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type pair struct {
	Role    Role
	Content string
}

func pairs(msgs []Message) []pair {
	out := make([]pair, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, pair{m.Role(), m.Content()})
	}
	return out
}

func TestNewRoundTripsThroughPayload(t *testing.T) {
	tests := []struct {
		role    Role
		content string
	}{
		{RoleSystem, "you are terse"},
		{RoleUser, "hello"},
		{RoleAssistant, ""},
		{RoleUser, "multi\nline\n"},
	}
	tr := NewTranscript()
	var want []pair
	for _, tt := range tests {
		m, err := New(tt.role, tt.content)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.role, err)
		}
		tr.Append(m)
		want = append(want, pair{tt.role, tt.content})
	}
	if diff := cmp.Diff(want, pairs(tr.Payload())); diff != "" {
		t.Errorf("Payload() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsUnknownRoles(t *testing.T) {
	for _, role := range []string{"", "User", "tool", "ai", "human", "assitant"} {
		t.Run(role, func(t *testing.T) {
			_, err := New(Role(role), "x")
			if !errors.Is(err, ErrInvalidRole) {
				t.Fatalf("New(%q) error = %v, want ErrInvalidRole", role, err)
			}
			var ire *InvalidRoleError
			if !errors.As(err, &ire) || ire.Role != role {
				t.Errorf("New(%q) error = %#v, want *InvalidRoleError{Role: %q}", role, err, role)
			}
			if _, err := ParseRole(role); err == nil {
				t.Errorf("ParseRole(%q) succeeded", role)
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew with invalid role did not panic")
		}
	}()
	MustNew("robot", "beep")
}

func TestPayloadReflectsLatestAppend(t *testing.T) {
	tr := NewTranscript()
	tr.Append(User("one"))
	first := tr.Payload()
	tr.Append(Assistant("two"))
	second := tr.Payload()

	if len(first) != 1 {
		t.Errorf("first payload len = %d, want 1", len(first))
	}
	want := []pair{{RoleUser, "one"}, {RoleAssistant, "two"}}
	if diff := cmp.Diff(want, pairs(second)); diff != "" {
		t.Errorf("Payload() mismatch (-want +got):\n%s", diff)
	}

	// Mutating a returned payload must not leak into the transcript.
	second[0] = System("nope")
	if got := tr.Payload()[0]; got.Role() != RoleUser {
		t.Errorf("transcript was mutated through payload: %v", got.Role())
	}
	if last, ok := tr.Last(); !ok || last.Content() != "two" {
		t.Errorf("Last() = %v, %v", last, ok)
	}
}
