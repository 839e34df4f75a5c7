// Package cli implements accountctl, a terminal client of the accounts API.
//
// Commands run once when given on the command line:
//
//	accountctl [-a url] [-t seconds] [-s state.db] <command> [args]
//
// With no command an interactive prompt starts. Missing arguments are
// prompted for; passwords are read from the terminal without echo. The
// session token of the last login is kept in the local state file.
package cli
