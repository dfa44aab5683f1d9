/*
Package autosave persists a respondent's answers as they progress.

A Pipeline owns one respondent session. Every answer change is applied to the
local answer set first, so nothing typed is ever lost, and then sent to a
ports.AnswerSink as a delta with retries:

  - up to 3 attempts with exponential backoff (1s, 2s) between them;
  - each attempt bounded by a timeout equal to its backoff step (1s, 2s, 4s);
  - 429 responses are retried like any other failure;
  - after the last failure the save state is OutcomeNotSaved and the answers
    stay pending for the next change or an explicit Retry.

Sends are serialized per pipeline and every field carries a version. A delta
always reads the latest local value, so a retry of an older change can never
overwrite a newer value that is already confirmed.

The first successful save pins the session id. A reply that carries a
disqualification moves the session to DISQUALIFIED immediately; DISQUALIFIED
and BOOKED sessions suppress any further saves.
*/
package autosave
