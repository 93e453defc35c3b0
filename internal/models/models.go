package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Friendship{},
		&Post{},
		&Comment{},
		&Like{},
		&Notification{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
	}
}
