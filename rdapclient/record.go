package rdapclient

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/openrdap/rdap"
)

var ErrNotJSON = errors.New("rdap response body is not a JSON object")

// Record 从域名记录中提取出的字段，取不到时为 nil。
type Record struct {
	Registrar *string
	Expiry    *string
}

type entity struct {
	Roles      []string        `json:"roles"`
	Handle     string          `json:"handle"`
	VCardArray json.RawMessage `json:"vcardArray"`
}

type event struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

// ParseRecord 解析 200 响应体。
// 不是 JSON 对象时返回 ErrNotJSON；objectClassName 可有可无，
// entities / events 缺失或类型不对时对应字段为 nil。
func ParseRecord(body []byte) (Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return Record{}, ErrNotJSON
	}

	var entities []entity
	if raw, ok := top["entities"]; ok {
		if err := json.Unmarshal(raw, &entities); err != nil {
			entities = nil
		}
	}
	var events []event
	if raw, ok := top["events"]; ok {
		if err := json.Unmarshal(raw, &events); err != nil {
			events = nil
		}
	}

	return Record{
		Registrar: registrarOf(entities),
		Expiry:    expiryOf(events),
	}, nil
}

// registrarOf 取第一个 registrar 角色实体的 vCard fn，没有 fn 时退回 handle。
func registrarOf(entities []entity) *string {
	for _, e := range entities {
		if !hasRole(e.Roles, "registrar") {
			continue
		}
		if name := vcardName(e.VCardArray); name != "" {
			return &name
		}
		if e.Handle != "" {
			handle := e.Handle
			return &handle
		}
		return nil
	}
	return nil
}

func vcardName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	card, err := rdap.NewVCard(raw)
	if err != nil || card == nil {
		return ""
	}
	return strings.TrimSpace(card.Name())
}

func expiryOf(events []event) *string {
	for _, ev := range events {
		if ev.Action != "expiration" {
			continue
		}
		date := strings.TrimSpace(ev.Date)
		if date == "" {
			return nil
		}
		if len(date) > 10 {
			date = date[:10]
		}
		return &date
	}
	return nil
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
