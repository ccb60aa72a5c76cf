package recommend

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/HendryAvila/ikitsuke/internal/notes"
)

const systemPromptHeader = `You are an assistant that recommends the best "memory note" through conversation with the user.
Choose exactly one note from the list below that best fits the user's mood and wishes.
At the end of the conversation you must answer with the id of the recommended note only in the JSON form {"recommended_note_id": "(id here)"}.
Do not put any other text before or after the JSON.

Available notes:
`

// decisionPattern matches the first decision object in a reply. Line
// breaks inside the object are allowed.
var decisionPattern = regexp.MustCompile(`(?is)\{\s*"recommended_note_id"\s*:\s*".*?"\s*\}`)

// BuildSystemPrompt renders the role, the answer contract and the JSON
// summaries of available.
func BuildSystemPrompt(available []notes.Note) (string, error) {
	data, err := json.Marshal(notes.Summarize(available))
	if err != nil {
		return "", fmt.Errorf("encoding note summaries: %w", err)
	}
	return systemPromptHeader + string(data), nil
}

// Decision is a parsed model reply.
type Decision struct {
	NoteID    string
	Remainder string
	Found     bool
}

// ParseReply extracts the recommendation from reply. The remainder is the
// reply with the decision object removed. A decision with an empty or
// undecodable id counts as not found.
func ParseReply(reply string) Decision {
	loc := decisionPattern.FindStringIndex(reply)
	if loc == nil {
		return Decision{}
	}

	var payload struct {
		ID string `json:"recommended_note_id"`
	}
	if err := json.Unmarshal([]byte(reply[loc[0]:loc[1]]), &payload); err != nil || payload.ID == "" {
		return Decision{}
	}

	return Decision{
		NoteID:    payload.ID,
		Remainder: strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:]),
		Found:     true,
	}
}
