/*
Package domain contains the core domain models of the formflow engine.

It defines the canonical Question Graph Model (an ordered list of questions
plus a set of endings), the rules that drive branching, the derived
node/edge view used by visual editors, and the value types produced at
answer time. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Question: a single step of a flow, optionally carrying rules and scoring.
  - Rule: a condition plus an action (jump, submit, disqualify).
  - Ending: a terminal screen with a qualification disposition.
  - Flow: the serializable document owned by a FlowStore.
  - Graph: the derived node/edge view of a Flow (start, question, end nodes).
  - Decision: the outcome of navigation for the current question.
*/
package domain
