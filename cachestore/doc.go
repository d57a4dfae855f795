// TTL cache of per-account eligibility verdicts, with purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// The engine caches the outcome of eligibility checks here and purges an
// account's entry whenever sanction, score, or account state changes, so a
// stale verdict is never served past a state transition.
package cachestore
