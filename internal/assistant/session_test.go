package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/depato-store/shopper-assistant/internal/assistant/model"
)

type fakeRunner struct {
	reply    string
	err      error
	lastIn   model.QueryInput
	sawDeadl bool
}

func (f *fakeRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	f.lastIn = in
	_, f.sawDeadl = ctx.Deadline()
	return f.reply, f.err
}

func Test_Session_HandleTurn(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{reply: "Hello!"}
	var conv model.ConversationConfig
	conv.Turn.Timeout = "90s"
	s := NewSession(r, "conv-1", conv)

	out, err := s.HandleTurn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if out != "Hello!" {
		t.Errorf("unexpected reply %q", out)
	}
	if r.lastIn.ConversationID != "conv-1" || r.lastIn.Query != "hi" {
		t.Errorf("unexpected input %+v", r.lastIn)
	}
	if !r.sawDeadl {
		t.Error("turn context should carry a deadline")
	}
}

func Test_Session_BadTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	var conv model.ConversationConfig
	conv.Turn.Timeout = "not a duration"
	s := NewSession(&fakeRunner{}, "conv-1", conv)
	if s.turnTimeout != 90*time.Second {
		t.Errorf("want default timeout, got %v", s.turnTimeout)
	}
}

func Test_Session_PropagatesRunnerError(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{err: errors.New("model unavailable")}
	var conv model.ConversationConfig
	conv.Turn.Timeout = "90s"
	s := NewSession(r, "conv-1", conv)

	if _, err := s.HandleTurn(context.Background(), "hi"); err == nil {
		t.Fatal("want error from runner")
	}
}
