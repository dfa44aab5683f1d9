/*
Package rules implements the Rule Evaluator: a total function that decides
whether a single condition holds for a set of collected answers.

Evaluation never fails. Unknown operators and non-numeric comparisons make
the rule evaluate to false, so a malformed rule never fires instead of
interrupting a respondent mid-flow. Check exposes the reason a rule could
not be evaluated so callers can log it.
*/
package rules
