package models

const (
	// BlankMarker replaces the removed term in a fill-in-the-blank sentence.
	BlankMarker = "_________"

	GeneralOverviewQuery = "general overview of the document"
	DefaultTopicLabel    = "general topics"

	ContextSeparator = "\n\n"
	ThinkTag         = `(?s)<think>.*?</think>`
	TOCLineRegex     = `^\d{1,2}\.\s`
)

var (
	SystemPromptStructured = `You are an assistant that writes educational material from a source document.
Respond ONLY with a single raw JSON object that conforms to the "%s" schema below. Do not add prose, markdown or code fences.
Schema:
%s`

	MCQPromptTemplate = `**Task:** Based on the context below, generate %d high-quality multiple-choice questions strictly about the topic '%s'. Ignore unrelated information in the context.
Rules for every question:
- "options" must contain at least two choices and must include "correct_answer" verbatim.
- "explanation" must justify the answer using only the context.
- "source_page" must be one of the Source Page values shown in the context.
If you cannot generate %d questions that follow these rules, generate as many as you can. Never invent facts that are not in the context.

**Context with Sources:**
---
%s
---
`

	FillInTheBlankPromptTemplate = `**Task:** Create %d fill-in-the-blank questions based on the context.
Follow these steps precisely for each question:
1.  Find an important, factual sentence in the context that is clearly about the topic '%s'.
2.  Identify a single, critical keyword or short phrase in that sentence.
3.  Create the "sentence" field by replacing that keyword with '` + BlankMarker + `'. Use the blank exactly once.
4.  Create the "correct_answer" field with the exact keyword you removed.
5.  Add the correct "source_page" from the context.

If you cannot create %d high-quality questions that follow these rules, create as many as you can.

**Context with Sources:**
---
%s
---
`

	SummaryPromptTemplate = `**Task:** Write a concise summary of the context%s. Synthesize the ideas into connected prose instead of listing them, and use only information found in the context.

**Context with Sources:**
---
%s
---
`
)
