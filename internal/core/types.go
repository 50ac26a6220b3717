package core

import "time"

const (
	AppName       = "PersonalAssistant"
	AppUserAgent  = "PersonalAssistant/0.1"
	AppRepository = "https://github.com/mcbarin/personal-ai-assistant"
	AppVersion    = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the closed classification of an utterance's purpose.
type Intent string

const (
	IntentTodo  Intent = "TODO"
	IntentEvent Intent = "EVENT"
	IntentQA    Intent = "QA"
)

// TaskSlots are the structured fields needed to create a todo.
// Due carries an explicit deadline only; times that belong to the task's
// subject matter stay inside Text.
type TaskSlots struct {
	Text string
	Due  *time.Time
}

// EventSlots are the structured fields needed to schedule a calendar event.
type EventSlots struct {
	Title string
	Start time.Time
	End   time.Time
}

// Capability is a named operation discovered from a workspace server at
// runtime. The set of available capabilities is not fixed at build time.
type Capability struct {
	Name        string
	Description string
}

type Todo struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Due       *time.Time `json:"due_at,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	Description string
	HTMLLink    string
}

// TurnResult is produced exactly once per handled utterance. A degraded
// reply (fallback provider used) is still a valid result, not an error.
type TurnResult struct {
	Reply           string   `json:"reply"`
	UsedTools       []string `json:"used_tools"`
	RetrievedDocIDs []string `json:"retrieved_doc_ids"`
}

// TurnRecord is the immutable audit row persisted after every turn.
type TurnRecord struct {
	ID              int64
	UserMessage     string
	AssistantReply  string
	ToolsUsed       string // comma-joined, empty when none
	RetrievedDocIDs string // comma-joined, empty when none
	CreatedAt       time.Time
}
