package entity

// Client is one registered participant. GameID is empty until the client is
// matched into a game; Mailbox is nil until a connection is live.
type Client struct {
	ID      string
	GameID  string
	Mailbox chan string
}
