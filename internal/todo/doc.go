// Package todo implements the task operations independently of how they are
// hosted. Each operation takes plain request data and returns a Result (an
// HTTP status and a JSON-serializable body), so the standalone server and the
// serverless function share one implementation.
//
// Every operation except Status first consults the connectivity Gate and
// answers 503 without touching the store when the database is marked
// unavailable. Unexpected store failures clear the gate and answer 500.
package todo
