package services

import (
	"fmt"
	"time"
)

// fileSearchParsePrompt asks the model to re-extract the structured search
// tuple from the raw utterance. Output contract mirrors llmParse.
func fileSearchParsePrompt(input string, today time.Time) string {
	return fmt.Sprintf(`You extract structured search conditions from a Korean file-search request.
Today is %s.

Return ONLY a JSON object with exactly these fields (use null when absent):
{
  "startDate": "YYYY-MM-DD or null",
  "endDate": "YYYY-MM-DD or null",
  "counterpart": "the other person's name or email, or null",
  "department": "one of DESIGN, DEVELOPMENT, SALES, HR, FINANCE, PLANNING, or null",
  "keyword": "the core content words describing the file, or null",
  "senderOnly": "true only if the user asks for files they sent, else null",
  "receiverOnly": "true only if the user asks for files they received, else null"
}

Rules:
- Resolve relative dates ("지난주", "한달 전쯤") against today's date; both endpoints or neither.
- "주고받은" means both directions: leave senderOnly and receiverOnly null.
- The keyword must not repeat the date, person, or department.
- Do not invent conditions that are not in the request.

Request: %s`, today.Format("2006-01-02"), input)
}

// keywordRefinePrompt asks the model to reduce a keyword phrase to the core
// content noun a filename or document body would actually contain.
func keywordRefinePrompt(keyword string) string {
	return fmt.Sprintf(`A user is searching shared files with the Korean phrase below.
Extract the single most specific content keyword a matching file name or
document text would contain. Drop verbs, particles and filler words.

Return ONLY a JSON object: {"keyword": "..."}

Phrase: %s`, keyword)
}
