// Package domain contains the core business entities, value objects, and
// domain logic of the application. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// The only entity is Task: a todo item with a server-assigned identifier,
// a title and a boolean completion state.
package domain
