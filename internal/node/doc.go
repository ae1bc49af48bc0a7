// Package node composes the engine, the registry and the command journal into
// one durable unit.
//
// Every command runs through the Registry (which delegates to the Engine) and,
// once accepted, is appended to the journal together with the clock reading it
// was applied at. Open replays the journal into a fresh Engine and Registry
// before accepting new commands: the clock is pinned to each entry's recorded
// time and forwarded calls are suppressed, so replay rebuilds state without
// repeating side effects.
//
// Rejected commands are not journaled. A replay error means the journal and
// the engine rules disagree; Open refuses to start rather than serve a
// partial index.
package node
