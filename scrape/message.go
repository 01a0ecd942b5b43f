// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scrape

import "time"

// Message is the normalized form of one retrieved message. Text and
// SenderID are null in JSON when the provider had none.
type Message struct {
	MessageID string    `json:"id"`
	Text      *string   `json:"text"`
	Date      time.Time `json:"date"`
	SenderID  *string   `json:"sender_id"`
}

// Result maps each channel, as configured, to its messages in provider
// order.
type Result map[string][]Message

// Count returns the total number of messages across channels.
func (r Result) Count() int {
	total := 0
	for _, messages := range r {
		total += len(messages)
	}
	return total
}

func normalize(raw RawMessage) Message {
	return Message{
		MessageID: raw.ID,
		Text:      raw.Text,
		Date:      raw.Timestamp.UTC(),
		SenderID:  raw.SenderID,
	}
}
