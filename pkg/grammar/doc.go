/*
Package grammar parses the turtle command language.

Programs are whitespace-separated tokens. A primitive command is an opcode followed by
an integer; a compound command repeats a bracketed body:

	RT 90 FD 15 REPEAT 4 [ FD 5 REPEAT 2 [ LT 45 ] ]

ExtractCommands regroups a token stream into top-level command strings and ParseCommand
turns one of those strings into a domain.Command. Both functions are pure. Repeat bodies
are kept as raw command strings, so nested repeats are parsed only when they run.

Every opcode has a short and a descriptive spelling (LT/LEFT, RT/RIGHT, FD/FORWARD,
BK/BACK, REPEAT), matched case-insensitively.
*/
package grammar
