// Package testutil provides registry fixtures for unit tests. Fixtures are
// small and well scaled so solver results can be checked with tight
// tolerances.
package testutil
