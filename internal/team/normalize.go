package team

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
)

// Inbound payloads have historically carried lists as arrays, as
// JSON-encoded strings holding arrays, or as comma-joined strings, and user
// references as bare ids or populated objects. The functions below are the
// only place those shapes are accepted.

// NormalizeSkills decodes a skills list in any tolerated shape.
func NormalizeSkills(raw json.RawMessage) ([]string, error) {
	items, err := decodeList(raw)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("%w: skill must be a string", ErrMalformedPayload)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// NormalizeUserRef accepts a bare id string or an object.
func NormalizeUserRef(raw json.RawMessage) (models.UserRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return models.UserRef{}, fmt.Errorf("%w: missing user", ErrMalformedPayload)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.UserRef{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return models.UserRef{}, fmt.Errorf("%w: user id %q", ErrMalformedPayload, s)
		}
		return models.UserRef{ID: id}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.UserRef{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	id, err := uuid.Parse(pickString(obj, "id", "_id", "user_id"))
	if err != nil {
		return models.UserRef{}, fmt.Errorf("%w: user without id", ErrMalformedPayload)
	}
	ref := models.UserRef{
		ID:          id,
		DisplayName: pickString(obj, "display_name", "displayName", "name", "username"),
	}
	if avatar := pickString(obj, "avatar", "avatar_url", "profilePicture"); avatar != "" {
		ref.Avatar = &avatar
	}
	return ref, nil
}

// NormalizeRoleSlots accepts slot objects, bare role names, or either of
// those wrapped in a JSON string, and comma-joined role names.
func NormalizeRoleSlots(raw json.RawMessage) ([]models.RoleSlot, error) {
	items, err := decodeList(raw)
	if err != nil {
		return nil, err
	}

	out := make([]models.RoleSlot, 0, len(items))
	for _, item := range items {
		slot, err := normalizeSlot(item)
		if err != nil {
			return nil, err
		}
		if slot.RoleType == "" {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func normalizeSlot(raw json.RawMessage) (models.RoleSlot, error) {
	slot := models.RoleSlot{
		ID:             uuid.New(),
		IsCore:         true,
		MaxPositions:   1,
		Priority:       models.PriorityMedium,
		RequiredSkills: []string{},
	}

	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return slot, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		slot.RoleType = strings.TrimSpace(name)
		return slot, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return slot, fmt.Errorf("%w: role slot must be an object or a name", ErrMalformedPayload)
	}

	if id := pickString(obj, "id", "_id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return slot, fmt.Errorf("%w: role slot id %q", ErrMalformedPayload, id)
		}
		slot.ID = parsed
	}
	slot.RoleType = strings.TrimSpace(pickString(obj, "role_type", "roleType", "role", "title"))
	slot.Description = pickString(obj, "description")
	if p := pickString(obj, "priority"); p != "" {
		slot.Priority = strings.ToLower(p)
	}
	if v, ok := pick(obj, "is_core", "isCore"); ok {
		if err := json.Unmarshal(v, &slot.IsCore); err != nil {
			return slot, fmt.Errorf("%w: is_core", ErrMalformedPayload)
		}
	}
	for _, f := range []struct {
		dst  *int
		keys []string
	}{
		{&slot.MaxPositions, []string{"max_positions", "maxPositions"}},
		{&slot.CurrentPositions, []string{"current_positions", "currentPositions"}},
		{&slot.ApplicationCount, []string{"application_count", "applicationCount", "applications"}},
	} {
		if v, ok := pick(obj, f.keys...); ok {
			if err := json.Unmarshal(v, f.dst); err != nil {
				return slot, fmt.Errorf("%w: %s must be a number", ErrMalformedPayload, f.keys[0])
			}
		}
	}
	if slot.MaxPositions < 1 || slot.CurrentPositions < 0 || slot.ApplicationCount < 0 {
		return slot, fmt.Errorf("%w: negative or zero capacity on %q", ErrMalformedPayload, slot.RoleType)
	}
	if v, ok := pick(obj, "required_skills", "requiredSkills", "skills"); ok {
		skills, err := NormalizeSkills(v)
		if err != nil {
			return slot, err
		}
		slot.RequiredSkills = skills
	}
	return slot, nil
}

// decodeList unwraps the three list shapes into raw JSON elements.
func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return items, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") {
			return decodeList(json.RawMessage(s))
		}
		var items []json.RawMessage
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			b, _ := json.Marshal(part)
			items = append(items, b)
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: expected a list", ErrMalformedPayload)
}

func pick(obj map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && string(bytes.TrimSpace(v)) != "null" {
			return v, true
		}
	}
	return nil, false
}

func pickString(obj map[string]json.RawMessage, keys ...string) string {
	v, ok := pick(obj, keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
