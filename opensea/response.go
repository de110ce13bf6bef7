package opensea

import (
	"encoding/json"
)

// Message is one Phoenix channel frame of the OpenSea Stream API.
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *int64          `json:"ref"`
}

// StreamEvent is the payload of a stream frame, the listing sits one level below.
type StreamEvent struct {
	EventType string       `json:"event_type"`
	Payload   ListingEvent `json:"payload"`
}

const (
	EventItemListed = "item_listed"

	phxJoin      = "phx_join"
	phxLeave     = "phx_leave"
	phxReply     = "phx_reply"
	phxHeartbeat = "heartbeat"
	phxTopic     = "phoenix"
)

// ListingEvent is a listing as reported by the marketplace.
// Only the fields below are read, everything else in the payload is ignored.
type ListingEvent struct {
	Collection     Collection   `json:"collection"`
	Item           Item         `json:"item"`
	BasePrice      string       `json:"base_price"`
	PaymentToken   PaymentToken `json:"payment_token"`
	EventTimestamp string       `json:"event_timestamp"`
	Maker          Account      `json:"maker"`
}

type Collection struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

type Item struct {
	Permalink string   `json:"permalink"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	Name     string `json:"name"`
	ImageUrl string `json:"image_url"`
}

type Account struct {
	Address string `json:"address"`
}

type PaymentToken struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	UsdPrice string `json:"usd_price"`
}
