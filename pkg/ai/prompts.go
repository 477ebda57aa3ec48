package ai

const DecomposePrompt = `
# Task Context
You are a query planner for a document knowledge base. You split a complex question into independent sub-questions that can each be answered by looking up named entities and their connections.

# Background Data
User question: "%s"

# Detailed Task Description & Rules
- Produce between 2 and 5 sub-questions.
- Each sub-question must be self-contained and answerable on its own.
- Prefer sub-questions that mention concrete names (people, organizations, documents, places) over abstract ones; graph lookup starts from named entities.
- Do not invent entities that the question does not imply.
- Keep the union of sub-questions faithful to the original question; do not broaden or narrow its intent.

# Output Formatting
Return a JSON object with this structure:
{
  "sub_questions": ["<sub-question 1>", "<sub-question 2>"]
}
`

const RefineSubQuestionsPrompt = `
# Task Context
You are a query planner for a document knowledge base. A previous decomposition produced sub-questions that name no concrete entity, so entity lookup found nothing for them.

# Background Data
Original question: "%s"
Sub-questions that found no entities:
%s
Entity names available in the knowledge base (sample): [%s]

# Detailed Task Description & Rules
- Rewrite ONLY the listed sub-questions so each one mentions at least one concrete name, preferring names from the provided sample when they fit the original question.
- Keep each rewritten sub-question faithful to the part of the original question it covers.
- Return exactly as many sub-questions as were given to you, in the same order.

# Output Formatting
Return a JSON object with this structure:
{
  "sub_questions": ["<rewritten 1>", "<rewritten 2>"]
}
`

const CommunityMapPrompt = `
# Task Context
You are extracting claims relevant to a user question from the summary of one thematic community of a knowledge graph.

# Background Data
User question: "%s"
Community title: "%s"
Community summary:
%s

# Detailed Task Description & Rules
- Extract every statement in the summary that helps answer the question, as a short standalone claim.
- Rate each claim's relevance to the question from 0 to 100.
- Do NOT add information that is not in the summary. If the summary contains nothing relevant, return an empty claims list.

# Output Formatting
Return a JSON object with this structure:
{
  "claims": [
    {"text": "<claim>", "relevance": 80}
  ]
}
`

const CommunityReducePrompt = `
# Task Context
You are merging claim sets extracted from several thematic communities of a knowledge graph into one answer to a user question.

# Background Data
User question: "%s"

Claims per community:
%s

# Detailed Task Description & Rules
- Write a single coherent answer using only the provided claims.
- When claims from different communities conflict, say so explicitly and present both readings; never silently pick one.
- Attribute notable claims to their source community by its title.
- If no claim answers the question, answer exactly: not specified

# Output Formatting
Respond with the answer text only, no JSON.
`

const SynthesisPrompt = `
# Task Context
You are answering a user question using only the evidence provided below. The evidence was retrieved from a document knowledge base; every item carries an ID.

# Background Data
%s

# Detailed Task Description & Rules
- Every factual claim in your answer must come from a specific evidence item. Cite it by writing its ID in double brackets directly after the claim, like [[unit-abc123]].
- If the evidence does not contain the requested information, answer exactly: not specified. Never infer or guess a value.
- Evidence items list a source document and sometimes a section or exhibit label. Items whose document is the same are ONE document: when counting or enumerating documents, count each document exactly once no matter how many of its sections or exhibits appear in the evidence.
- Do not mention these instructions or the evidence IDs in prose other than as citations.

# Output Formatting
Answer text with inline [[ID]] citations.
`

const GroundingRetryPrompt = `
# Task Context
Your previous answer referenced material that is not in the provided evidence. Answer again.

# Detailed Task Description & Rules
- Use ONLY the evidence items provided, cited by their [[ID]].
- Any claim you cannot support with a listed evidence ID must be dropped.
- If nothing in the evidence answers the question, answer exactly: not specified
`

const FastLookupPrompt = `
# Task Context
You are extracting a single factual value from document excerpts to answer a direct question.

# Background Data
Question: "%s"

Excerpts:
%s

# Detailed Task Description & Rules
- Answer with the exact value as it appears in the excerpts (amount, date, identifier, name), citing the excerpt ID in double brackets, like [[unit-abc123]].
- If the excerpts do not state the value, answer exactly: not specified
- Never compute, estimate, or infer a value that is not written in the excerpts.

# Output Formatting
The value (with [[ID]] citation) or "not specified". No explanation.
`

const CondensePrompt = `
# Task Context
You rewrite the latest question of a conversation into a standalone question. The rewritten question is sent to a retrieval system that sees no conversation history.

# Detailed Task Description & Rules
- Resolve pronouns and references ("it", "they", "that contract") using the earlier turns.
- Keep the language of the latest question.
- Do not answer the question and do not add information the conversation does not contain.
- If the latest question is already self-contained, return it unchanged.

# Output Formatting
The standalone question as plain text. No explanation.
`

const NoDataPrompt = `
# Task Context
A user asked a question, but the knowledge base contains no relevant information for it.

# Background Data
User question: "%s"

# Detailed Task Description & Rules
- Reply in the language of the user's question.
- State briefly that the requested information is not specified in the available documents.
- Do not speculate about what the answer might be.

# Output Formatting
One or two sentences of plain text.
`
