// Package testutil holds small helpers shared by package tests.
package testutil

import "testing"

// Scenario, Given, When, and Then keep multi-step workflow tests readable
// without pulling in a BDD framework.
func Scenario(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Scenario: "+desc, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
