// Package cli implements the Thought Board command-line client.
//
// Usage:
//
//	client [-a URL] [-token T] <command> [args]
//
// Commands are register, login, post and list. Passwords are read from the
// terminal without echo. login prints the access token; pass it to post with
// -token or the THOUGHTBOARD_TOKEN environment variable.
package cli
