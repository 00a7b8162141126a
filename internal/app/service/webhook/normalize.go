package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"
)

// ErrUnresolvablePayload means no session reference could be extracted
// from the notification. These are the only deliveries worth a non-2xx
// response, since retrying them can never succeed.
var ErrUnresolvablePayload = errors.New("webhook payload carries no session reference")

// Event is a gateway notification reduced to the fields the state
// machine cares about. Providers disagree on payload shape, so
// extraction walks a fixed list of known locations.
type Event struct {
	EventType   string
	SessionID   string
	Status      types.GatewayPaymentStatus
	AmountMinor *int64
}

var sessionIDPaths = [][]string{
	{"data", "session_id"},
	{"data", "id"},
	{"data", "object", "id"},
	{"object", "id"},
	{"data", "session", "id"},
}

var statusPaths = [][]string{
	{"data", "payment_status"},
	{"data", "status"},
	{"object", "payment_status"},
}

var amountPaths = [][]string{
	{"data", "total_amount"},
	{"data", "amount"},
	{"object", "total_amount"},
}

// Normalize extracts the canonical event from a raw notification body.
// A payload without a session reference fails with
// ErrUnresolvablePayload; a payload without a status yields
// StatusUnknown and is treated downstream as a no-op.
func Normalize(body []byte) (*Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvablePayload, err)
	}

	ev := &Event{}
	ev.EventType, _ = payload["event_type"].(string)
	if ev.EventType == "" {
		ev.EventType, _ = payload["type"].(string)
	}

	for _, path := range sessionIDPaths {
		if s, ok := lookupString(payload, path); ok && s != "" {
			ev.SessionID = s
			break
		}
	}
	if ev.SessionID == "" {
		return nil, ErrUnresolvablePayload
	}

	var rawStatus string
	for _, path := range statusPaths {
		if s, ok := lookupString(payload, path); ok && s != "" {
			rawStatus = s
			break
		}
	}
	ev.Status = types.NormalizeGatewayStatus(rawStatus)
	if ev.Status == types.GatewayStatusUnknown {
		ev.Status = statusFromEventType(ev.EventType)
	}

	for _, path := range amountPaths {
		if v, ok := lookupNumber(payload, path); ok {
			amount := int64(v)
			ev.AmountMinor = &amount
			break
		}
	}

	return ev, nil
}

// statusFromEventType falls back to the event name when the payload
// carries no explicit status field.
func statusFromEventType(eventType string) types.GatewayPaymentStatus {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "unpaid"):
		return types.GatewayStatusUnpaid
	case strings.Contains(t, "fail"):
		return types.GatewayStatusFailed
	case strings.Contains(t, "paid"), strings.Contains(t, "success"):
		return types.GatewayStatusPaid
	case strings.Contains(t, "cancel"):
		return types.GatewayStatusCancelled
	default:
		return types.GatewayStatusUnknown
	}
}

func lookup(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(m map[string]any, path []string) (string, bool) {
	v, ok := lookup(m, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupNumber(m map[string]any, path []string) (float64, bool) {
	v, ok := lookup(m, path)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
