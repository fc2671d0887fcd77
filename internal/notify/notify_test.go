package notify

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_Say(t *testing.T) {
	var out bytes.Buffer
	c := &Console{Out: &out}
	c.Say("hello there")
	if out.String() != "hello there\n" {
		t.Errorf("output = %q, want %q", out.String(), "hello there\n")
	}
}

func TestConsole_Snippet(t *testing.T) {
	var out bytes.Buffer
	c := &Console{Out: &out}
	c.Snippet("payload body", "an intro", "details.txt")
	got := out.String()
	for _, want := range []string{"an intro", "details.txt", "payload body"} {
		if !strings.Contains(got, want) {
			t.Errorf("output = %q, want to contain %q", got, want)
		}
	}
}

func TestConsole_UserIdentity(t *testing.T) {
	c := &Console{}
	if c.FromUserID() != "console" {
		t.Errorf("FromUserID = %q, want default 'console'", c.FromUserID())
	}
	c.UserID = "alice"
	if c.FromUserMention() != "@alice" {
		t.Errorf("FromUserMention = %q, want '@alice'", c.FromUserMention())
	}
}

type recordingConversation struct {
	Console
	intro    string
	filename string
	payload  string
}

func (r *recordingConversation) Snippet(payload, intro, filename string) {
	r.payload, r.intro, r.filename = payload, intro, filename
}

func TestReportError(t *testing.T) {
	rec := &recordingConversation{}
	ReportError(rec, "the details")

	if rec.payload != "the details" {
		t.Errorf("payload = %q, want %q", rec.payload, "the details")
	}
	if !strings.HasPrefix(rec.filename, "error-details-") || !strings.HasSuffix(rec.filename, ".txt") {
		t.Errorf("filename = %q, want error-details-<timestamp>.txt", rec.filename)
	}
	if !strings.Contains(rec.intro, "Sorry") {
		t.Errorf("intro = %q, want an apology", rec.intro)
	}
}
