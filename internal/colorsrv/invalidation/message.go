// Package invalidation carries cache clear requests between operators and
// every running colour service over a redis pub/sub channel.
package invalidation

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Scope string

const (
	ScopeKey Scope = "key"
	ScopeAll Scope = "all"
)

// Message is the payload published on the invalidation channel.
type Message struct {
	Scope Scope  `json:"scope"`
	Key   string `json:"key,omitempty"`
}

func ClearKey(key palette.Key) Message {
	return Message{Scope: ScopeKey, Key: key.String()}
}

func ClearAll() Message {
	return Message{Scope: ScopeAll}
}

// Invalidator is the part of the colour cache a message acts on.
type Invalidator interface {
	Clear(key palette.Key)
	ClearAll()
}

func (m Message) Validate() error {
	switch m.Scope {
	case ScopeAll:
		if m.Key != "" {
			return ErrInvalidMessage.Msg("scope all does not take a key")
		}
		return nil
	case ScopeKey:
		if _, err := palette.ParseKey(m.Key); err != nil {
			return ErrInvalidMessage.MsgErr("invalid key: "+m.Key, err)
		}
		return nil
	}
	return ErrInvalidMessage.Msg("unknown scope: " + string(m.Scope))
}

func (m Message) Encode() (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", ErrInvalidMessage.Err(err)
	}
	return string(b), nil
}

func Decode(payload string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return Message{}, ErrInvalidMessage.MsgErr("message is not valid JSON", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Apply decodes payload and clears the matching cache entries.
func Apply(ctx context.Context, inv Invalidator, payload string) error {
	m, err := Decode(payload)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("payload", payload).Msg("ignoring invalidation message")
		return err
	}
	switch m.Scope {
	case ScopeAll:
		inv.ClearAll()
		log.Ctx(ctx).Info().Msg("cleared all colour collections")
	case ScopeKey:
		key, _ := palette.ParseKey(m.Key)
		inv.Clear(key)
		log.Ctx(ctx).Info().Str("key", m.Key).Msg("cleared colour collection")
	}
	return nil
}
