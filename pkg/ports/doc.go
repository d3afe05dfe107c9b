/*
Package ports defines the interfaces (ports) between the tracks core and its adapters.

Following Hexagonal Architecture, the session layer depends on these ports and never on a
concrete storage backend:

  - SnapshotStore: persists turtle snapshots per session (memory, Redis).
  - DistributedLocker: serialises access to one session across replicas (Redis).

RunSnapshotStoreContract verifies that an implementation honours the store contract.
*/
package ports
