// Package history exports command lifecycle events (start, stop and their
// failures) to external stores for auditing. Sinks are optional and append
// only; devterm never reads its running state back from them.
package history
