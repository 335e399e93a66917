package ai

type MessageRole string

const (
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	SystemRole    MessageRole = "system"
)

type Message interface {
	Value() (role MessageRole, content string)
}

type SystemMessage struct {
	Content string
}

func (m SystemMessage) Value() (MessageRole, string) {
	return SystemRole, m.Content
}

type UserMessage struct {
	Content string
}

func (m UserMessage) Value() (MessageRole, string) {
	return UserRole, m.Content
}

// AIMessage is the assistant response returned by a model call.
type AIMessage struct {
	Role    MessageRole
	Content string
	Usage   Usage
}

func (m AIMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
