package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	inboxPrefix = "inbox:"
	inboxSize   = 100
)

// Message is one in-app inbox entry.
type Message struct {
	Kind      string            `json:"kind"`
	LoanID    string            `json:"loan_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Inbox keeps the latest messages per member in a capped Redis list.
type Inbox struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewInbox(rdb *redis.Client, ttl time.Duration) *Inbox {
	return &Inbox{rdb: rdb, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func inboxKey(userID string) string { return inboxPrefix + userID }

func (i *Inbox) push(ctx context.Context, userID string, m Message) error {
	m.CreatedAt = i.now()
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := inboxKey(userID)
	pipe := i.rdb.TxPipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, inboxSize-1)
	if i.ttl > 0 {
		pipe.Expire(ctx, key, i.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Latest returns up to n messages, newest first.
func (i *Inbox) Latest(ctx context.Context, userID string, n int64) ([]Message, error) {
	raw, err := i.rdb.LRange(ctx, inboxKey(userID), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (i *Inbox) NotifyLoanStatus(ctx context.Context, userID, loanID, status string, data map[string]string) error {
	return i.push(ctx, userID, Message{
		Kind: "loan_status", LoanID: loanID,
		Title: "Loan update",
		Body:  "Your loan is now " + status,
		Data:  data,
	})
}

func (i *Inbox) NotifyGuarantorRequest(ctx context.Context, userID, loanID, borrowerName string, amount decimal.Decimal, position, totalRequired int) error {
	return i.push(ctx, userID, Message{
		Kind: "guarantor_request", LoanID: loanID,
		Title: "Guarantor request",
		Body:  fmt.Sprintf("%s asked you to guarantee a loan of %s (guarantor %d of %d)", borrowerName, amount.StringFixed(2), position, totalRequired),
	})
}

func (i *Inbox) NotifyGuarantorConfirmed(ctx context.Context, borrowerID, loanID, guarantorName string, confirmedCount, totalRequired int) error {
	return i.push(ctx, borrowerID, Message{
		Kind: "guarantor_confirmed", LoanID: loanID,
		Title: "Guarantor confirmed",
		Body:  fmt.Sprintf("%s confirmed as guarantor (%d of %d)", guarantorName, confirmedCount, totalRequired),
	})
}
