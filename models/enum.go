package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidChannel       = errors.New("invalid channel")
	ErrInvalidInterestLevel = errors.New("invalid interest level")
)

/************************************************
/**** MARK: CHANNEL ****/
/************************************************/

// Channel is a messaging surface a contact can reach us through.
type Channel int

const (
	ChannelWeb Channel = iota
	ChannelTelegram
	ChannelWhatsApp
	ChannelMessenger
	ChannelInstagram
)

var channelNames = map[Channel]string{
	ChannelWeb:       "web",
	ChannelTelegram:  "telegram",
	ChannelWhatsApp:  "whatsapp",
	ChannelMessenger: "facebook_messenger",
	ChannelInstagram: "instagram",
}

var channelByName = map[string]Channel{
	"web":                ChannelWeb,
	"telegram":           ChannelTelegram,
	"whatsapp":           ChannelWhatsApp,
	"facebook_messenger": ChannelMessenger,
	"messenger":          ChannelMessenger,
	"instagram":          ChannelInstagram,
}

// Channels lists every supported channel in declaration order.
func Channels() []Channel {
	return []Channel{ChannelWeb, ChannelTelegram, ChannelWhatsApp, ChannelMessenger, ChannelInstagram}
}

// ParseChannel maps a raw channel name (case and surrounding space
// insensitive) to a Channel.
func ParseChannel(s string) (Channel, error) {
	if ch, ok := channelByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return ch, nil
	}
	return ChannelWeb, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
}

func (c Channel) String() string {
	if s, ok := channelNames[c]; ok {
		return s
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

func (c Channel) Valid() bool {
	_, ok := channelNames[c]
	return ok
}

func (c Channel) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, int(c))
	}
	return c.String(), nil
}

func (c *Channel) Scan(src any) error {
	if src == nil {
		*c = ChannelWeb
		return nil
	}
	s, err := scanString(src)
	if err != nil {
		return err
	}
	ch, err := ParseChannel(s)
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(b []byte) error {
	ch, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

/************************************************
/**** MARK: INTEREST LEVEL ****/
/************************************************/

// InterestLevel is the lead funnel state of a contact.
type InterestLevel int

const (
	InterestNew InterestLevel = iota
	InterestContacted
	InterestInterested
	InterestConfirmed
	InterestNotInterested
)

var interestNames = map[InterestLevel]string{
	InterestNew:           "new",
	InterestContacted:     "contacted",
	InterestInterested:    "interested",
	InterestConfirmed:     "confirmed",
	InterestNotInterested: "not_interested",
}

var interestByName = map[string]InterestLevel{
	"new":            InterestNew,
	"contacted":      InterestContacted,
	"interested":     InterestInterested,
	"confirmed":      InterestConfirmed,
	"not_interested": InterestNotInterested,
}

// InterestLevels lists every level in funnel order.
func InterestLevels() []InterestLevel {
	return []InterestLevel{InterestNew, InterestContacted, InterestInterested, InterestConfirmed, InterestNotInterested}
}

func ParseInterestLevel(s string) (InterestLevel, error) {
	if lvl, ok := interestByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl, nil
	}
	return InterestNew, fmt.Errorf("%w: %q", ErrInvalidInterestLevel, s)
}

func (l InterestLevel) String() string {
	if s, ok := interestNames[l]; ok {
		return s
	}
	return fmt.Sprintf("interest(%d)", int(l))
}

func (l InterestLevel) Valid() bool {
	_, ok := interestNames[l]
	return ok
}

func (l InterestLevel) Value() (driver.Value, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterestLevel, int(l))
	}
	return l.String(), nil
}

func (l *InterestLevel) Scan(src any) error {
	if src == nil {
		*l = InterestNew
		return nil
	}
	s, err := scanString(src)
	if err != nil {
		return err
	}
	lvl, err := ParseInterestLevel(s)
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

func (l InterestLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterestLevel, int(l))
	}
	return []byte(l.String()), nil
}

func (l *InterestLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseInterestLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported scan type %T", src)
	}
}
