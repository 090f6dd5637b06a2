// Package testutil holds shared in-memory fakes for service-level tests.
package testutil
