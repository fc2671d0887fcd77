package notify

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Console is a Conversation for interactive CLI sessions: messages and
// snippets go to a writer, monitoring snippets to the logger.
type Console struct {
	Out    io.Writer
	Log    zerolog.Logger
	UserID string // defaults to "console"
}

func (c *Console) Say(message string) {
	fmt.Fprintln(c.Out, message)
}

func (c *Console) Snippet(payload, intro, filename string) {
	fmt.Fprintf(c.Out, "%s\n--- %s ---\n%s\n", intro, filename, payload)
}

func (c *Console) MonitoringSnippet(intro, filename, payload string) {
	c.Log.Warn().
		Str("filename", filename).
		Str("payload", payload).
		Msg(intro)
}

func (c *Console) FromUserID() string {
	if c.UserID == "" {
		return "console"
	}
	return c.UserID
}

func (c *Console) FromUserMention() string {
	return "@" + c.FromUserID()
}
