package models

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// GroundingLink is a web or map source returned with an AI answer.
type GroundingLink struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type GroundingChunk struct {
	Web  *GroundingLink `json:"web,omitempty"`
	Maps *GroundingLink `json:"maps,omitempty"`
}

type ChatMessage struct {
	ID              string           `json:"id"`
	Role            ChatRole         `json:"role"`
	Text            string           `json:"text"`
	IsError         bool             `json:"isError,omitempty"`
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

type SendChatRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}
