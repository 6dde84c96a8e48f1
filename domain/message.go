// Package domain contains core concepts of the chat system.
// This file defines the message envelope and conversation keys.
// Messages are immutable once routed; only their seen record grows.
package domain

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileKind classifies an attachment by its extension, mirroring what the
// upload collaborator produces.
type FileKind string

const (
	FileText  FileKind = "text"
	FileImage FileKind = "image"
	FilePDF   FileKind = "pdf"
	FileAudio FileKind = "audio"
)

// KindFromName derives the attachment kind from a file name.
// Unknown extensions fall back to FileText.
func KindFromName(name string) FileKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return FileImage
	case ".pdf":
		return FilePDF
	case ".mp3", ".wav", ".webm", ".m4a":
		return FileAudio
	default:
		return FileText
	}
}

// Message represents one chat message envelope.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    Identity  `json:"sender"`
	Content   string    `json:"content"`
	Lang      string    `json:"lang,omitempty"` // ISO 639-1 code tagged during moderation, may be empty
	FileURL   string    `json:"file_url,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileKind  FileKind  `json:"file_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is the storage-facing view of a message: the envelope plus
// the identities that have acknowledged viewing it.
type StoredMessage struct {
	Message Message
	SeenBy  []Identity
}

// DirectConversation keys the history shared by two identities. The pair is
// sorted so both sides resolve the same key.
func DirectConversation(a, b Identity) string {
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return "dm:" + pair[0] + "|" + pair[1]
}

// GroupConversation keys the history of a group.
func GroupConversation(id GroupID) string {
	return "group:" + string(id)
}
