// Package message holds the conversation primitives: roles, messages and the
// transcript that is sent with every completion request.
package message

import (
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrInvalidRole is matched by every *InvalidRoleError.
var ErrInvalidRole = errors.New("invalid role")

// InvalidRoleError reports a role outside of system, user and assistant.
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role %q: the role can only be one of 'system', 'user' or 'assistant'", e.Role)
}

func (e *InvalidRoleError) Is(target error) bool { return target == ErrInvalidRole }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &InvalidRoleError{Role: s}
	}
	return r, nil
}

// Message is a single role-tagged entry of the conversation.
// The zero value is not valid; use New.
type Message struct {
	role    Role
	content string
}

// New returns a message or an *InvalidRoleError if role is unknown.
func New(role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, &InvalidRoleError{Role: string(role)}
	}
	return Message{role: role, content: content}, nil
}

// MustNew is like New but panics on an invalid role.
func MustNew(role Role, content string) Message {
	m, err := New(role, content)
	if err != nil {
		panic(err)
	}
	return m
}

// User returns a user message.
func User(content string) Message { return Message{role: RoleUser, content: content} }

// Assistant returns an assistant message.
func Assistant(content string) Message { return Message{role: RoleAssistant, content: content} }

// System returns a system message.
func System(content string) Message { return Message{role: RoleSystem, content: content} }

func (m Message) Role() Role      { return m.role }
func (m Message) Content() string { return m.content }

// Transcript is the ordered, append-only log of a chat session.
// It is not safe for concurrent use.
type Transcript struct {
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds m to the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Payload returns the messages in conversation order. The returned slice is
// freshly allocated on every call.
func (t *Transcript) Payload() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
