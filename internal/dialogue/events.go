// Package dialogue implements the per-user conversation state machine: it
// consumes one inbound event at a time, reads and updates the session store,
// invokes the recommendation selector or rating aggregator, and hands outbound
// response descriptions to the notifier.
package dialogue

// TextMessage is a free-text message typed by a user.
type TextMessage struct {
	UserID     string
	ReplyToken string
	Text       string
}

// Postback is a structured callback attached to a user's tap on a presented
// option. Data is an ASCII string of key=value pairs joined by '&'.
type Postback struct {
	UserID     string
	ReplyToken string
	Data       string
}
