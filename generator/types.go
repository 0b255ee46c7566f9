package generator

// Role 标识消息在对话中的身份。
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message 是发送给模型的一条消息，每次调用重新构建，不做持久化。
type Message struct {
	Role    Role
	Content string
}

// Prompt 表示一次补全调用的全部输入。
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// Messages 按固定顺序（system 在前，user 在后）展开为消息列表。
func (p Prompt) Messages() []Message {
	msgs := make([]Message, 0, 2)
	if p.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: p.System})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: p.User})
	return msgs
}
