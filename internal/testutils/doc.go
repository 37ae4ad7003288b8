// Package testutils provides shared helpers for tests.
package testutils
