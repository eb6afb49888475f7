/*
Package domain contains the core models of the assistant.

It defines the entities the rest of the system is built around: inbound
Events, per-user Sessions, persisted ContentRecords, generation requests
and results, platform limits and the shared error taxonomy. This package
is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.
*/
package domain
