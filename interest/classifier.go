// Package interest implements the lead funnel: a pure, rule-based state
// machine over inbound text and the agent's reply.
package interest

import (
	"leaddesk/models"
	"leaddesk/tools"
)

// Signals holds which keyword buckets matched a message.
type Signals struct {
	Negative    []string `json:"negative,omitempty"`
	Strong      []string `json:"strong,omitempty"`
	Medium      []string `json:"medium,omitempty"`
	ReplyOffers []string `json:"reply_offers,omitempty"`
}

// Positive reports whether the user message carried explicit interest.
// Greetings and curiosity (medium) do not cancel a refusal.
func (s Signals) Positive() bool {
	return len(s.Strong) > 0
}

// Detect returns the keyword buckets matched by userMessage and agentReply.
// Negative phrases are consumed before positive matching, so "not
// interested" never counts as "interested".
func Detect(userMessage, agentReply string) Signals {
	var s Signals

	text := tools.Fold(userMessage)
	for _, p := range negativeReplies {
		if text == p {
			s.Negative = append(s.Negative, p)
			text = ""
			break
		}
	}
	for _, p := range negativePhrases {
		if tools.HasPhrase(text, p) {
			s.Negative = append(s.Negative, p)
			text = tools.RemovePhrase(text, p)
		}
	}
	s.Strong = matchAll(text, strongPhrases)
	s.Medium = matchAll(text, mediumPhrases)
	s.ReplyOffers = matchAll(tools.Fold(agentReply), replyOfferPhrases)
	return s
}

// NextState computes the interest level that follows current after the
// exchange (userMessage, agentReply). It has no side effects.
//
// not_interested is absorbing; interested and confirmed only ever move to
// not_interested.
func NextState(current models.InterestLevel, userMessage, agentReply string) models.InterestLevel {
	return Transition(current, Detect(userMessage, agentReply))
}

// Transition applies the rule table to already detected signals.
func Transition(current models.InterestLevel, s Signals) models.InterestLevel {
	if !current.Valid() {
		current = models.InterestNew
	}
	if current == models.InterestNotInterested {
		return current
	}

	switch {
	case len(s.Negative) > 0 && !s.Positive():
		return models.InterestNotInterested
	case len(s.Strong) > 0 || len(s.ReplyOffers) > 0:
		if current == models.InterestNew || current == models.InterestContacted {
			return models.InterestInterested
		}
	case len(s.Medium) > 0:
		switch current {
		case models.InterestNew:
			return models.InterestContacted
		case models.InterestContacted:
			return models.InterestInterested
		}
	}
	return current
}

func matchAll(folded string, phrases []string) []string {
	if folded == "" {
		return nil
	}
	var out []string
	for _, p := range phrases {
		if tools.HasPhrase(folded, p) {
			out = append(out, p)
		}
	}
	return out
}
