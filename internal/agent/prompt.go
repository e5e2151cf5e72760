package agent

import (
	"fmt"

	"github.com/sells-group/annobench/internal/model"
)

const basePrompt = `You are an intelligent search agent designed to answer questions by strategically gathering information.

Your task: Given an obscure question, and based on the information you have gathered, determine the correct answer.

Available actions:
- ask: Ask a single, closed-ended yes/no question to the user for more information, responses will be: yes, no, or idk
- search: Search for external information using a search engine
- answer: Provide your final answer when confident

Strategy:
- Focus on asking questions to user that help distinguish between similar options
- Use search to verify or find additional information
- Answer when you have sufficient distinguishing information

IMPORTANT: You must respond in XML format as below:
<thought> Your reasoning about what to do next </thought>
<action> ask:question OR search:query OR answer:your_answer </action>`

const forcePromptFmt = `Based on the information you have gathered, you must now provide a final answer.

Original Question: %s

Evidence Collected:
%s

IMPORTANT: You must respond in XML format as below:
<thought>Analyze the evidence step by step and identify which answer best matches the specific details collected</thought>
<action>answer:your_evidence_based_final_answer</action>`

// buildPrompt assembles the decision prompt for one turn: remaining budget,
// standing instructions, the question, and the full serialized transcript.
func buildPrompt(question string, transcript model.Transcript, turn, maxTurns int) string {
	return fmt.Sprintf("\nTurn: %d/%d\n%s\n\nInformation you have gathered:\nQuestion: %s\n\nConversation History: %s",
		turn, maxTurns, basePrompt, question, transcript.String())
}

// buildForcePrompt assembles the terminal prompt demanding an answer from
// the evidence alone.
func buildForcePrompt(question string, transcript model.Transcript) string {
	return fmt.Sprintf(forcePromptFmt, question, transcript.String())
}
