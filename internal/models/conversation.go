package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation. It is never mutated after creation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func SystemTurn(text string) Turn    { return Turn{Role: RoleSystem, Text: text} }
func UserTurn(text string) Turn      { return Turn{Role: RoleUser, Text: text} }
func AssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }
