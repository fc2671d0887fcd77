// Package runbot runs external commands on behalf of a chat bot and
// reports failures back to the conversation that requested them.
package runbot

// Version is the runbot release version.
const Version = "0.3.0"
