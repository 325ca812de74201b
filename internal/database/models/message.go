package models

import "github.com/google/uuid"

type Message struct {
	Base
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Content   string    `gorm:"not null" json:"content"`

	// Relationships
	Sender   *User            `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Mentions []MessageMention `gorm:"foreignKey:MessageID" json:"mentions,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageMention struct {
	Base
	MessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MessageMention) TableName() string {
	return "message_mentions"
}
