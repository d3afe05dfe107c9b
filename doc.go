/*
Package tracks is a small LOGO-style turtle graphics interpreter.

A turtle sits on a rectangular character canvas, heading north. Programs rotate it
(LT, RT), walk it forward or back (FD, BK) one cell at a time, and repeat blocks of
commands (REPEAT n [ ... ]). Every cell the turtle steps onto is marked, and the
canvas renders as text: ". " for unvisited cells and "X " for visited ones.

# Usage

	ip, err := tracks.New(11, 11)
	if err != nil {
		log.Fatal(err)
	}
	if err := ip.Run(ctx, "REPEAT 4 [ FD 3 RT 90 ]"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(ip.Tracks())

Opcodes are case-insensitive and accept descriptive aliases (LEFT, RIGHT, FORWARD, BACK).
A move that would leave the canvas fails with domain.ErrOutOfBounds and the turtle stays
on its last valid cell; unknown or badly formed commands fail with domain.ErrMalformedCommand.

# Architecture

The interpreter follows a hexagonal layout:

  - pkg/domain: canvas, commands, snapshots, errors and lifecycle events.
  - pkg/grammar: tokenizing and parsing program text.
  - internal/runtime: the turtle itself.
  - pkg/program: .logo files and yaml/json manifests.
  - pkg/session, pkg/ports, pkg/adapters: persistent sessions (memory, Redis) served over HTTP and MCP.

The tracks command (cmd/tracks) runs programs from the shell and hosts the servers.
*/
package tracks
