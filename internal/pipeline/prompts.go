package pipeline

// Prompt templates for the content-generation stages. Structured outputs
// are requested as bare JSON; parse.go tolerates code fences anyway.

const analyzePrompt = `You are a content analyst turning raw notes into a blog post outline.

Analyze the notes below and produce:
1. A compelling blog post title%s
2. An engaging description (2-3 sentences)
3. Between %d and %d logical subheadings that flow naturally

Respond with ONLY this JSON structure, no other text:
{"title": "...", "description": "...", "subheadings": ["...", "..."]}

NOTES:
%s`

const reviseOutlinePrompt = `The outline below has %d subheadings, but the post needs between %d and %d.
Revise the subheading list to fit that range while covering the notes. Keep the title and description.

Respond with ONLY this JSON structure, no other text:
{"title": "...", "description": "...", "subheadings": ["...", "..."]}

TITLE: %s
DESCRIPTION: %s
CURRENT SUBHEADINGS:
%s

NOTES:
%s`

const introPrompt = `Write a compelling introduction (2-3 paragraphs) for a blog post.
Hook the reader, explain what the post covers, and set expectations. No heading, just the paragraphs.

TITLE: %s
DESCRIPTION: %s
SECTIONS: %s`

const conclusionPrompt = `Write an engaging conclusion (1-2 paragraphs) for a blog post.
Summarize the key points and end with a practical takeaway. No heading, just the paragraphs.

TITLE: %s
SECTIONS: %s`

const sectionPrompt = `Write the body for one section of a blog post. 2-4 paragraphs,
practical and specific. No heading, just the paragraphs.

POST TITLE: %s
POST DESCRIPTION: %s
SECTION: %s

RESEARCH NOTES (may be empty; use when relevant, do not cite verbatim):
%s`

const headerImagePrompt = `A clean, modern blog header illustration for an article titled "%s". %s. Digital illustration, soft colors, no text.`

const sectionImagePrompt = `An illustration for a blog section titled "%s" in an article about %s. Digital illustration, soft colors, no text.`

const metadataPrompt = `Select metadata for this blog post.

Rules:
- category MUST be exactly one of: %s
- likely category based on the content: %s
- between %d and %d short lowercase tags that complement the category

Respond with ONLY this JSON structure, no other text:
{"category": "...", "tags": ["...", "..."]}

TITLE: %s
DESCRIPTION: %s
SECTIONS: %s`
