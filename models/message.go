package models

import (
	"time"
)

// MessageChannel represents the communication channel
type MessageChannel string

const (
	ChannelWeb       MessageChannel = "web"
	ChannelWebSocket MessageChannel = "websocket"
	ChannelWhatsApp  MessageChannel = "whatsapp"
)

// ChatMessage is one line of the append-only chat transcript.
type ChatMessage struct {
	ID                  string         `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID             string         `bson:"owner_id" json:"owner_id"`
	Text                string         `bson:"text" json:"text"`
	IsFromUser          bool           `bson:"is_from_user" json:"is_from_user"`
	Timestamp           time.Time      `bson:"timestamp" json:"timestamp"`
	DetectedDisease     string         `bson:"detected_disease,omitempty" json:"detected_disease,omitempty"`
	RecommendedDoctorID string         `bson:"recommended_doctor_id,omitempty" json:"recommended_doctor_id,omitempty"`
	Channel             MessageChannel `bson:"channel,omitempty" json:"channel,omitempty"`
}

// ChatTurn is a role-tagged message handed to the text-completion model.
// Role is "user" or "assistant".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is one inbound message. Only Message is read from a client
// body; UserID and Channel are set by the surface that received it.
type ChatRequest struct {
	Message string         `json:"message" binding:"required"`
	UserID  string         `json:"-"`
	Channel MessageChannel `json:"-"`
}

type ChatResponse struct {
	Response            string          `json:"response"`
	SessionID           string          `json:"session_id"`
	Step                Step            `json:"step"`
	RequiresLocation    bool            `json:"requires_location,omitempty"`
	DetectedDisease     string          `json:"detected_disease,omitempty"`
	RecommendedDoctorID string          `json:"recommended_doctor_id,omitempty"`
	AppointmentID       string          `json:"appointment_id,omitempty"`
	Doctor              *DoctorSnapshot `json:"doctor,omitempty"`
	Actions             []Action        `json:"actions,omitempty"`
}

type Action struct {
	Type    string                 `json:"type"`
	Label   string                 `json:"label"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// WhatsApp Webhook Models
type WhatsAppWebhookData struct {
	Object string          `json:"object"`
	Entry  []WhatsAppEntry `json:"entry"`
}

type WhatsAppEntry struct {
	ID      string           `json:"id"`
	Changes []WhatsAppChange `json:"changes"`
}

type WhatsAppChange struct {
	Field string        `json:"field"`
	Value WhatsAppValue `json:"value"`
}

type WhatsAppValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         WhatsAppMetadata  `json:"metadata"`
	Messages         []WhatsAppMessage `json:"messages,omitempty"`
	Statuses         []WhatsAppStatus  `json:"statuses,omitempty"`
}

type WhatsAppMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WhatsAppMessage struct {
	From      string               `json:"from"`
	ID        string               `json:"id"`
	Timestamp string               `json:"timestamp"`
	Type      string               `json:"type"`
	Text      *WhatsAppText        `json:"text,omitempty"`
	Button    *WhatsAppButtonReply `json:"button,omitempty"`
}

type WhatsAppText struct {
	Body string `json:"body"`
}

type WhatsAppButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type WhatsAppStatus struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// WhatsApp Send Message Models
type WhatsAppSendMessage struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *WhatsAppText `json:"text,omitempty"`
}

// Service Status Model
type WhatsAppServiceStatus struct {
	Enabled             bool      `json:"enabled"`
	LastMessageSent     time.Time `json:"last_message_sent"`
	LastMessageReceived time.Time `json:"last_message_received"`
	MessageCountToday   int       `json:"message_count_today"`
}

// Body returns the user-visible text of an inbound message, or "" for
// message types the assistant does not handle.
func (m WhatsAppMessage) Body() string {
	switch {
	case m.Type == "text" && m.Text != nil:
		return m.Text.Body
	case m.Type == "button" && m.Button != nil:
		return m.Button.Title
	default:
		return ""
	}
}
