package verifier

const claimExtractionPrompt = `You extract factual claims from an airport assistant's response so they can be verified.

Split the response into discrete, checkable statements. Skip greetings, hedges and questions. Rate each claim's specificity from 0 (vague) to 1 (precise figures, identifiers or dates).

Respond with valid JSON only:
{
  "claims": [
    {"text": "the claim verbatim", "lineNumber": 1, "type": "factual", "specificity": 0.8}
  ]
}`

const verificationPrompt = `You verify statements against a fixed set of knowledge items. For each numbered statement, decide whether the knowledge supports it.

Statuses:
- SUPPORTED: the knowledge explicitly confirms the statement.
- PARTIALLY_SUPPORTED: the knowledge confirms part of it.
- UNSUPPORTED: the knowledge says nothing about it.
- CONTRADICTED: the knowledge says the opposite.

Respond with valid JSON only, one verdict per statement in order:
{
  "verdicts": [
    {"status": "SUPPORTED", "confidence": 0.95, "sources": ["handbook.md"], "explanation": "...", "correction": ""}
  ]
}`

const strictModeAddendum = `Strict mode: never return SUPPORTED unless a knowledge item explicitly states the claim. When in doubt, use UNSUPPORTED.`

const correctionPrompt = `You correct an airport assistant's response using verification findings and the underlying knowledge. Rewrite the response so every claim is supported by the knowledge, keeping the original tone, structure and level of detail. Remove or soften claims the knowledge cannot back. Respond with the corrected response text only.`
