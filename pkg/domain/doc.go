/*
Package domain contains the core domain models of the tracks interpreter.

It defines the canvas the turtle paints on, the closed set of commands the grammar
produces, and the serialisable snapshot of a turtle. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Grid: A fixed-size character canvas. Cells are either unvisited (". ") or visited ("X ").
  - Command: A parsed instruction (Rotate, Move or Repeat).
  - Snapshot: The persisted form of a turtle (heading, position, marked cells).
  - LifecycleHooks: Callbacks fired by the runtime for observability.
*/
package domain
