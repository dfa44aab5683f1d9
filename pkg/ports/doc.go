/*
Package ports defines the driven ports (interfaces) for the formflow engine.

These interfaces decouple the engine from its collaborators, so flows and
respondent progress can live in memory, in Redis or behind a remote API.

# Key Interfaces

  - FlowStore: the graph persistence collaborator; stores flow documents keyed by form id.
  - ProgressStore: server-side storage for respondent answers and status.
  - AnswerSink: the answer persistence / qualification collaborator used by auto-save.
  - DistributedLocker: serializes author saves of one form across replicas.
*/
package ports
