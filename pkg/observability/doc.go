/*
Package observability provides tools for monitoring the tracks interpreter.

Metrics turns the runtime lifecycle hooks into Prometheus counters, and LogHooks
logs every marked cell at debug level. Both can be combined with MergeHooks.
*/
package observability
