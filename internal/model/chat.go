package model

import "time"

// Chat is the conversation paired with a reservation, stored in the
// `chats` table.  It is created in the same transaction as its
// reservation and archived (never deleted) when the reservation is
// cancelled.  The preview columns mirror the newest message so list
// views need no join against chat_messages.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation this chat belongs to (unique).
//  CustomerID    – customer participant.
//  OwnerID       – owner participant.
//  Status        – ACTIVE or ARCHIVED.
//  LastMessage   – preview of the newest message body.
//  LastSenderID  – sender of the newest message (0 = system).
//  LastMessageAt – timestamp of the newest message.
type Chat struct {
    ID            uint64     // chats.id
    ReservationID uint64     // chats.reservation_id
    CustomerID    uint64     // chats.customer_id
    OwnerID       uint64     // chats.owner_id
    Status        string     // chats.status
    LastMessage   string     // chats.last_message
    LastSenderID  uint64     // chats.last_sender_id
    LastMessageAt *time.Time // chats.last_message_at (nullable)
}

// Chat statuses.
const (
    ChatActive   = "ACTIVE"
    ChatArchived = "ARCHIVED"
)

// ChatMessage is one entry in a chat's append-only message stream,
// stored in the `chat_messages` table.  SenderID 0 is the reserved
// system identity used for lifecycle notifications.
//
// Fields:
//  ID        – primary key identifier.
//  ChatID    – owning chat.
//  SenderID  – author (participant user ID, or 0 for system).
//  Body      – message text.
//  IsRead    – whether the counterpart has read the message.
//  CreatedAt – when the message was appended.
type ChatMessage struct {
    ID        uint64    // chat_messages.id
    ChatID    uint64    // chat_messages.chat_id
    SenderID  uint64    // chat_messages.sender_id
    Body      string    // chat_messages.body
    IsRead    bool      // chat_messages.is_read
    CreatedAt time.Time // chat_messages.created_at
}
