package interview

import (
	"fmt"

	"github.com/ashureev/mockinterview/internal/llm"
)

const deciderPrompt = `You are a skilled technical interviewer and assistant. Given the conversation and the
candidate's latest utterance, choose exactly one action and output ONLY valid JSON with no commentary.

Output JSON schema:
{
  "action": "<one of: ask_followup | ask_new_topic | answer_user | end_session>",
  "content": "<the question to ask OR the answer to give>",
  "should_score": <true|false>,
  "score": <optional integer 1-10>,
  "feedback": "<optional short feedback>"
}

Rules:
- If the candidate asked a direct question (e.g. "Explain binary search"), choose "answer_user" and put the explanation in "content".
- If the candidate described a project or past work worth probing, choose "ask_followup" with a specific, contextual follow-up.
- If the previous question was answered well and it is time to move on, choose "ask_new_topic" with the next interview question.
- If the interview should end (the candidate asked to finish, or enough topics were covered), choose "end_session" with a brief closing note.
- Keep "content" to one or two sentences or a single question.
- Set "should_score" to true when the candidate's last answer deserves evaluation, and add an integer "score" 1-10 plus 1-2 sentences of "feedback".
- Stay conversational and keep to the persona given in "persona" (neutral, confused, efficient or chatty).

The JSON must be valid and parsable.`

const summaryPrompt = `You are an expert career coach. Given the interview transcript, write a concise final summary with:
1) Overall performance (1 sentence)
2) 2-3 strengths
3) 2-3 areas for improvement
4) Top 2 concrete recommendations

Aim for 150-220 words. Be encouraging but honest.`

const evaluatePrompt = `You are an interviewer evaluating a single answer. Output exactly two lines:
SCORE: [1-10]
FEEDBACK: [1-2 sentence feedback]`

// Fixed texts recorded in history or returned to the client.
const (
	AlreadyFinishedSummary = "Interview already finished."
	EndedMarker            = "Interview ended."
	SummaryUnavailable     = "Thank you, session ended."
	ClarificationMessage   = "I didn't quite catch that. Could you rephrase or ask a question? Or say 'ask me a question' to continue the interview."
)

// Generation settings per call site.
var (
	firstQuestionParams = llm.Params{Temperature: 0.5, MaxTokens: 120}
	deciderParams       = llm.Params{Temperature: 0.6, MaxTokens: 400}
	answerParams        = llm.Params{Temperature: 0.2, MaxTokens: 400}
	questionParams      = llm.Params{Temperature: 0.6, MaxTokens: 120}
	evaluateParams      = llm.Params{Temperature: 0.3, MaxTokens: 150}
	summaryParams       = llm.Params{Temperature: 0.3, MaxTokens: 400}
)

func greeting(name, role string) string {
	return fmt.Sprintf("Hello %s! It's great to meet you. I've reviewed your resume and background. Let's begin your %s interview.", name, role)
}

func firstQuestionPrompt(resume, persona, role string) string {
	return fmt.Sprintf(`You are an interviewer. Generate the VERY FIRST interview question, personalized using this resume:

Resume:
%s

Persona: %s
Role: %s

Rules:
- Open with a warm, natural tone.
- Make the question relevant to the candidate's resume.
- Do NOT mention that this was AI-generated.
- Keep it short and specific.`, resume, persona, role)
}

func answerPrompt(persona, question string) string {
	return fmt.Sprintf("You are an expert interviewer and teacher. Answer the candidate's question directly and concisely, matching the persona: %s.\n\nCandidate question:\n%s", persona, question)
}

func followupPrompt(persona string, resumePresent bool, transcript string) string {
	return fmt.Sprintf("You are an interviewer following up on the candidate's last statement. Persona: %s. Resume present: %t.\n\nRecent transcript:\n%s\nProduce ONE specific, concise probing follow-up question that digs deeper into the candidate's last point.", persona, resumePresent, transcript)
}

func newTopicPrompt(role, persona, transcript string) string {
	return fmt.Sprintf("You are an interviewer for the role %s with persona %s. Based on the recent transcript:\n%s\nGenerate one concise new interview question to move the interview forward.", role, persona, transcript)
}

func evaluationInput(question, answer string) string {
	if question == "" {
		question = "N/A"
	}
	return fmt.Sprintf("Question: %s\nAnswer: %s", question, answer)
}
