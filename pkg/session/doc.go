/*
Package session implements session management and persistence orchestration.

Every session owns one turtle. The Manager serialises access per session ID (with an
optional distributed lock across replicas), rebuilds the turtle from its stored snapshot,
applies the incoming commands and saves the result.
*/
package session
