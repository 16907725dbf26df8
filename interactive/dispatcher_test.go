package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap/zaptest"
	"golang.org/x/tools/txtar"
)

// recordingSession records chat turns and fails with err on the turn with
// index failAt.
type recordingSession struct {
	turns  []string
	err    error
	failAt int
}

func (s *recordingSession) Turn(ctx context.Context, input string) error {
	s.turns = append(s.turns, input)
	if s.err != nil && len(s.turns)-1 == s.failAt {
		return s.err
	}
	return nil
}

// recordingImages records image requests.
type recordingImages struct {
	calls []string
	err   error
}

func (c *recordingImages) GenerateImage(ctx context.Context, req provider.ImageRequest) (provider.Image, error) {
	c.calls = append(c.calls, fmt.Sprintf("generate model=%s size=%s quality=%s style=%s prompt=%q",
		req.Model, req.Size, req.Quality, req.Style, req.Prompt))
	if c.err != nil {
		return provider.Image{}, c.err
	}
	return provider.Image{URL: fmt.Sprintf("https://images.test/gen/%d", len(c.calls))}, nil
}

func (c *recordingImages) EditImage(ctx context.Context, req provider.ImageEditRequest) (provider.Image, error) {
	data, err := io.ReadAll(req.Image)
	if err != nil {
		return provider.Image{}, err
	}
	c.calls = append(c.calls, fmt.Sprintf("edit file=%s size=%s prompt=%q bytes=%d",
		filepath.Base(req.Filename), req.Size, req.Prompt, len(data)))
	if c.err != nil {
		return provider.Image{}, c.err
	}
	return provider.Image{URL: fmt.Sprintf("https://images.test/edit/%d", len(c.calls))}, nil
}

// sliceReader returns lines one at a time, then err (io.EOF by default).
type sliceReader struct {
	lines []string
	err   error
	reads int
}

func (r *sliceReader) ReadLine(string) (string, error) {
	r.reads++
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *sliceReader) Close() error { return nil }

func testConfig(workdir string) Config {
	return Config{
		WorkingDirectory: workdir,
		ImageModel:       "dall-e-3",
		ImageSize:        "1792x1024",
		ImageStyle:       "natural",
		ImageEditSize:    "1024x1024",
	}
}

// TestScripts runs the dispatcher over testdata/*.txtar. The archive comment
// is the user input. files/* are written to the working directory. turns,
// images, stdout, stderr, error and state hold the expected results; $WORK
// stands for the working directory.
func TestScripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no scripts in testdata")
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			workdir := t.TempDir()
			want := map[string]string{}
			for _, f := range ar.Files {
				if rel, ok := strings.CutPrefix(f.Name, "files/"); ok {
					if err := os.WriteFile(filepath.Join(workdir, rel), f.Data, 0o600); err != nil {
						t.Fatal(err)
					}
					continue
				}
				want[f.Name] = string(f.Data)
			}

			var stdout, stderr strings.Builder
			session := &recordingSession{}
			images := &recordingImages{}
			d := NewDispatcher(testConfig(workdir), session, images,
				NewScannerReader(strings.NewReader(string(ar.Comment))),
				WithStdout(&stdout),
				WithStderr(&stderr),
				WithLogger(zaptest.NewLogger(t).Sugar()),
			)
			runErr := d.Run(context.Background(), strings.TrimSpace(want["first"]))

			var turns strings.Builder
			for _, turn := range session.turns {
				turns.WriteString(strconv.Quote(turn) + "\n")
			}
			var errText string
			if runErr != nil {
				errText = runErr.Error() + "\n"
			}
			got := map[string]string{
				"turns":  turns.String(),
				"images": lines(images.calls),
				"stdout": stdout.String(),
				"stderr": stderr.String(),
				"error":  errText,
				"state":  d.State().String() + "\n",
			}
			for _, key := range []string{"turns", "images", "stdout", "stderr", "error", "state"} {
				g := strings.ReplaceAll(got[key], workdir, "$WORK")
				if diff := cmp.Diff(want[key], g); diff != "" {
					t.Errorf("%s mismatch (-want +got):\n%s", key, diff)
				}
			}
		})
	}
}

func lines(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return strings.Join(ss, "\n") + "\n"
}

func TestSessionErrorsStopTheLoop(t *testing.T) {
	errMaxTokens := errors.New("maximum number of tokens exceeded")
	session := &recordingSession{err: errMaxTokens, failAt: 0}
	reader := &sliceReader{lines: []string{"too long", "never read"}}
	d := NewDispatcher(testConfig(""), session, &recordingImages{}, reader,
		WithStdout(io.Discard), WithStderr(io.Discard))

	if err := d.Run(context.Background(), ""); !errors.Is(err, errMaxTokens) {
		t.Fatalf("Run() = %v, want the session error", err)
	}
	if reader.reads != 1 {
		t.Errorf("reads = %d, want 1", reader.reads)
	}
	if d.State() != Terminated {
		t.Errorf("State() = %v, want Terminated", d.State())
	}
}

func TestLongLineIsSkipped(t *testing.T) {
	session := &recordingSession{}
	reader := NewScannerReader(strings.NewReader("hello\n" + strings.Repeat("x", 64) + "\nworld\n"))
	reader.max = 16
	var stderr strings.Builder
	d := NewDispatcher(testConfig(""), session, &recordingImages{}, reader,
		WithStdout(io.Discard), WithStderr(&stderr))

	if err := d.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if diff := cmp.Diff([]string{"hello", "world"}, session.turns); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}
	if want := "Input error: input line too long, line skipped\n"; stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr.String(), want)
	}
}

func TestFirstMessage(t *testing.T) {
	session := &recordingSession{}
	reader := &sliceReader{lines: []string{"second"}}
	d := NewDispatcher(testConfig(""), session, &recordingImages{}, reader)

	if err := d.Run(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, session.turns); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestInterruptTerminates(t *testing.T) {
	for _, state := range []State{AwaitingInput, CollectingMultilineBlock} {
		t.Run(state.String(), func(t *testing.T) {
			session := &recordingSession{}
			var lines []string
			if state == CollectingMultilineBlock {
				lines = []string{"start", "partial"}
			}
			reader := &sliceReader{lines: lines, err: ErrInterrupted}
			d := NewDispatcher(testConfig(""), session, &recordingImages{}, reader)
			if err := d.Run(context.Background(), ""); err != nil {
				t.Fatalf("Run() = %v", err)
			}
			if len(session.turns) != 0 {
				t.Errorf("turns = %q, want none", session.turns)
			}
			if d.State() != Terminated {
				t.Errorf("State() = %v", d.State())
			}
		})
	}
}

func TestCancelledTurnEndsCleanly(t *testing.T) {
	session := &recordingSession{err: context.Canceled, failAt: 0}
	reader := &sliceReader{lines: []string{"hi", "more"}}
	d := NewDispatcher(testConfig(""), session, &recordingImages{}, reader)
	if err := d.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if reader.reads != 1 {
		t.Errorf("reads = %d, want 1", reader.reads)
	}
}

func TestImageErrorsKeepSession(t *testing.T) {
	session := &recordingSession{}
	images := &recordingImages{err: fmt.Errorf("dummy: %w", provider.ErrUnsupported)}
	reader := &sliceReader{lines: []string{"img a red fox", "hello"}}
	var stderr strings.Builder
	d := NewDispatcher(testConfig(""), session, images, reader, WithStdout(io.Discard), WithStderr(&stderr))

	if err := d.Run(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr.String(), "Image generation error: dummy: operation not supported") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if diff := cmp.Diff([]string{"hello"}, session.turns); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleTransitions(t *testing.T) {
	d := NewDispatcher(testConfig(""), &recordingSession{}, &recordingImages{}, &sliceReader{})
	ctx := context.Background()
	steps := []struct {
		line string
		want State
	}{
		{"Start", CollectingMultilineBlock},
		{"quit", CollectingMultilineBlock},
		{"END_PROMPT", AwaitingInput},
		{"  s  ", CollectingMultilineBlock},
		{"e", AwaitingInput},
		{"Q", Terminated},
	}
	for _, step := range steps {
		if err := d.Handle(ctx, step.line); err != nil {
			t.Fatalf("Handle(%q) = %v", step.line, err)
		}
		if d.State() != step.want {
			t.Fatalf("after %q state = %v, want %v", step.line, d.State(), step.want)
		}
	}
}

func TestParseImageDirective(t *testing.T) {
	tests := []struct {
		in     string
		want   imageDirective
		wantOK bool
	}{
		{"img hd a red fox", imageDirective{quality: "hd", prompt: "a red fox"}, true},
		{"IMAGE Standard sunset", imageDirective{quality: "standard", prompt: "sunset"}, true},
		{"img a cat", imageDirective{quality: "standard", prompt: "a cat"}, true},
		{"img", imageDirective{quality: "standard"}, true},
		{"imagine a cat", imageDirective{}, false},
		{"", imageDirective{}, false},
	}
	for _, tt := range tests {
		got, ok := parseImageDirective(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseImageDirective(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMissingFileError(t *testing.T) {
	d := NewDispatcher(Config{WorkingDirectory: t.TempDir()}, &recordingSession{}, &recordingImages{}, &sliceReader{})
	err := d.Handle(context.Background(), "F absent.txt")
	var mfe *MissingFileError
	if !errors.As(err, &mfe) {
		t.Fatalf("Handle() = %v, want *MissingFileError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error does not wrap os.ErrNotExist: %v", err)
	}
	if filepath.Base(mfe.Path) != "absent.txt" {
		t.Errorf("Path = %q", mfe.Path)
	}
}
