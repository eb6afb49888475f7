/*
Package ports defines the driven ports (interfaces) between the
conversational core and its collaborators.

These interfaces decouple the flow engine from external implementations,
allowing the core to work with various session backends, record stores,
transports and generation providers.

# Key Interfaces

  - SessionStore: per-user ephemeral dialogue state.
  - RecordStore: persisted content records (posts, plans, templates).
  - Transport: outbound message delivery and file download.
  - Generator: the text-generation backend behind the facade.
  - Transcriber: voice-to-text for voice events.
*/
package ports
