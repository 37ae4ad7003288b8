// Package connectivity tracks whether the database is believed reachable.
//
// The Tracker holds a single process-wide flag. Request handlers read it
// before touching the database and answer 503 without querying when it is
// false. Pool events, query failures and a periodic reconnect loop move the
// flag between states; reading it never blocks and never issues a query.
package connectivity
