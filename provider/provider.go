// Package provider defines the contract between the chat session and the
// remote completion services.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tmc/cligpt/message"
)

// FinishReasonLength is reported on the fragment that ends a response cut
// short by the token limit.
const FinishReasonLength = "length"

// ErrUnsupported is returned by backends for operations they do not offer.
var ErrUnsupported = errors.New("operation not supported by this backend")

// Fragment is one incremental piece of a streamed response. Empty fields are
// absent.
type Fragment struct {
	Text         string
	FinishReason string
}

// Stream yields the fragments of a single response. Recv returns io.EOF once
// the response is complete. A Stream cannot be restarted.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// ChatRequest is a streamed chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []message.Message
	Temperature float64
	// MaxTokens of zero leaves the limit to the service.
	MaxTokens int
}

// ImageRequest asks for a single generated image.
type ImageRequest struct {
	Prompt  string
	Model   string
	Size    string
	Quality string
	Style   string
}

// ImageEditRequest asks for an edit of an existing image.
type ImageEditRequest struct {
	Image    io.Reader
	Filename string
	Prompt   string
	Size     string
}

// Image is a generated image.
type Image struct {
	URL string
}

// TranscriptionRequest asks for the text of an audio file.
type TranscriptionRequest struct {
	Path     string
	Model    string
	Language string
}

// Client is a completion service.
type Client interface {
	StreamChat(ctx context.Context, req ChatRequest) (Stream, error)
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
	EditImage(ctx context.Context, req ImageEditRequest) (Image, error)
	ListModels(ctx context.Context) ([]string, error)
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
	// Validate checks that the configured credential is accepted.
	Validate(ctx context.Context) error
}

// CredentialError reports a credential rejected by the remote service.
type CredentialError struct {
	Backend string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: invalid credential: %v", e.Backend, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// SliceStream returns a Stream over fixed fragments, followed by err (or
// io.EOF when err is nil).
func SliceStream(err error, fragments ...Fragment) Stream {
	return &sliceStream{fragments: fragments, err: err}
}

type sliceStream struct {
	fragments []Fragment
	err       error
	closed    bool
}

func (s *sliceStream) Recv() (Fragment, error) {
	if s.closed {
		return Fragment{}, io.EOF
	}
	if len(s.fragments) == 0 {
		if s.err != nil {
			return Fragment{}, s.err
		}
		return Fragment{}, io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
