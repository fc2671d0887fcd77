// Package notify defines the conversation surface commands report through.
// The chat backend itself lives elsewhere; this package carries the consumed
// interface and a console-backed implementation for CLI use.
package notify

import (
	"fmt"
	"time"
)

// Conversation is the notification collaborator: a handle on the chat
// context a command was requested from.
type Conversation interface {
	// Say sends a plain text message to the current conversation.
	Say(message string)

	// Snippet sends a text attachment with an introductory message.
	Snippet(payload, intro, filename string)

	// MonitoringSnippet is Snippet routed to the operations channel
	// instead of the user-facing one.
	MonitoringSnippet(intro, filename, payload string)

	// FromUserID identifies the requesting user for correlation.
	FromUserID() string

	// FromUserMention renders the requesting user for addressing.
	FromUserMention() string
}

// ReportError sends the payload to the requesting user as a timestamped
// error-details attachment with an apology intro.
func ReportError(conv Conversation, payload string) {
	dt := time.Now().Format("2006-01-02-15-04-05")
	conv.Snippet(payload,
		"Sorry, I encountered an error. Please contact the operations team with the following details.",
		fmt.Sprintf("error-details-%s.txt", dt))
}
