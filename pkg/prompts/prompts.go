package prompts

var (
	PlannerFinancial = `
You are a senior research planner. Break the user's question: "{{.Query}}"
into 3-5 concrete research steps, for example:
1. Look up fundamentals and operating data for each mentioned company
2. Search for recent major news and market developments
3. Query the knowledge base for relevant frameworks (when applicable)
4. Analyze competitive position and outlook

Output only the list, one task per line, in the form: number. task description
`

	PlannerAcademic = `
You are a senior research planner. Break the user's question: "{{.Query}}"
into 3-5 concrete research steps.

This is an academic or theoretical question, so focus on:
1. Querying the knowledge base for relevant theory, methods and concepts
2. Searching the web for related papers and recent research
3. Comparing and contrasting the concepts involved
4. Summarizing strengths, weaknesses and where each applies

Do not include stock or financial lookups; the question is not about markets.

Output only the list, one task per line, in the form: number. task description
`

	Decision = `
You are a deep researcher. The current task is: {{.Task}}

The user's original question: {{.Query}}

Findings so far:
{{.Notes}}

Available tools:
{{.Tools}}

Decide which tool calls, if any, this task still needs. You may request
several independent calls at once. Only use tools that are relevant to the
task. When the gathered information is sufficient, request no calls and
summarize what was learned instead.

Answer with a single json object, escape any invalid characters in values:
{
    "reasoning": "{WHY_THESE_CALLS_OR_WHY_DONE}",
    "summary": "{WHAT_WAS_LEARNED_IF_DONE}",
    "calls": [{"tool": "{TOOL_NAME}", "args": {"{ARG}": "{VALUE}"}}]
}
`

	Report = `
You are a professional analyst. Using the research notes below, write a
thorough, well-structured report answering the user's question: '{{.Query}}'

Completed research tasks:
{{.Tasks}}

Research notes (each tagged with the task and tool that produced it):
{{.Notes}}

{{.Structure}}

Keep every claim grounded in the notes and keep the evidence tags next to the
claims they support. If a section has no supporting material, say so plainly
instead of inventing content.
`

	ReportStructureFinancial = `Structure the report as:
1. Executive summary
2. Data and financial position
3. Recent developments and market performance
4. Competitive analysis
5. Risks
6. Conclusions and recommendations`

	ReportStructureAcademic = `Structure the report as:
1. Executive summary
2. Theoretical background and key concepts
3. Comparative analysis
4. Strengths and weaknesses
5. Applications and practical considerations
6. Conclusions

Do not force financial data into the report; none is expected.`

	ReportStructureGeneric = `Structure the report as:
1. Executive summary
2. Core findings
3. Sources and evidence
4. Discussion
5. Conclusions

Only use material actually present in the notes.`

	EmailDraft = `
You are a professional email writing assistant. Write a polite, professional
email draft from the following request.

Request: {{.Prompt}}

Recipient: {{.Recipient}}

Include an appropriate greeting, a clear body that addresses the request, and
a closing. Use [Your Name] and [Company Name] as signature placeholders for
the user to fill in. Output only the email body, without a subject line.
`

	EmailSubject = `
Generate one concise, professional subject line (at most 50 characters) for
the email below.

Email body:
{{.Body}}

Output only the subject, nothing else.
`

	EmailRevise = `
You are a professional email writing assistant. Improve the email draft below
by applying the reviewer's feedback while staying faithful to the original
request.

Request: {{.Prompt}}
Recipient: {{.Recipient}}
Current draft:
{{.Draft}}

Reviewer feedback:
{{.Feedback}}

Output only the improved email body, without a subject line. Keep the
[Your Name] and [Company Name] signature placeholders.
`

	EmailCritique = `
You are an email quality reviewer. Evaluate the draft below against the
user's request.

Request: {{.Prompt}}
Recipient: {{.Recipient}}
Draft:
{{.Draft}}

Check completeness, professional tone, clarity, fit for the recipient, and
that nothing contradicts the request. Only ask for a revision when there is a
serious problem such as missing key information or an inappropriate tone.

Answer with a single json object:
{
    "verdict": "{approve_or_revise}",
    "feedback": "{SPECIFIC_IMPROVEMENTS_WHEN_REVISING}"
}
`

	CalendarDraft = `
You are a scheduling assistant. Extract a calendar event from the request
below. Today's date is {{.Today}}.

Request: {{.Prompt}}

Resolve relative dates like "tomorrow" against today's date. When no time is
given, default to 09:00 and a one hour duration. Attendees must be email
addresses; omit the field when none are given.

Answer with a single json object, all times in RFC 3339 format:
{
    "title": "{EVENT_TITLE}",
    "start": "{START_TIME}",
    "end": "{END_TIME}",
    "location": "{LOCATION_OR_EMPTY}",
    "attendees": ["{EMAIL_ADDRESSES}"],
    "description": "{SHORT_DESCRIPTION}"
}
`

	CalendarRevise = `
You are a scheduling assistant. Correct the calendar event below by applying
the reviewer's feedback. Today's date is {{.Today}}.

Request: {{.Prompt}}
Current event:
{{.Draft}}

Reviewer feedback:
{{.Feedback}}

Answer with a single json object in the same format as before, all times in
RFC 3339 format:
{
    "title": "{EVENT_TITLE}",
    "start": "{START_TIME}",
    "end": "{END_TIME}",
    "location": "{LOCATION_OR_EMPTY}",
    "attendees": ["{EMAIL_ADDRESSES}"],
    "description": "{SHORT_DESCRIPTION}"
}
`

	CalendarCritique = `
You are a scheduling quality reviewer. Evaluate whether the event below
faithfully captures the request.

Request: {{.Prompt}}
Event:
{{.Draft}}

Check that the title is descriptive, the times match what was asked, and no
requested detail was dropped. Only ask for a revision when something the user
asked for is wrong or missing.

Answer with a single json object:
{
    "verdict": "{approve_or_revise}",
    "feedback": "{SPECIFIC_IMPROVEMENTS_WHEN_REVISING}"
}
`
)
