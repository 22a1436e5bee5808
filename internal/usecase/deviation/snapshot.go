package deviation

import (
	"strconv"
	"strings"
	"time"

	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/ports"
)

// User-list field names as the remote store exposes them.
const (
	userFieldName     = "Title"
	userFieldEmail    = "Email"
	userFieldPassword = "Senha"
	userFieldRole     = "Perfil"
	userFieldAreas    = "Area_de_Atuacao"
)

// userRecord is one row of the users list: the public identity plus the
// stored password used only by Login.
type userRecord struct {
	User     domain.User `json:"user"`
	Password string      `json:"password"`
}

// Snapshot is one consistent read of both remote lists. It is immutable once
// built; Refresh swaps the whole value under the service lock.
type Snapshot struct {
	Users    []userRecord   `json:"users"`
	Events   []domain.Event `json:"events"`
	LoadedAt time.Time      `json:"loaded_at"`
	Stale    bool           `json:"stale"`
}

func (s *Snapshot) eventByTitle(title string) (domain.Event, bool) {
	for _, event := range s.Events {
		if event.Title == title {
			return event, true
		}
	}
	return domain.Event{}, false
}

// fieldString coerces a raw list value to a string. The remote store hands
// back JSON, so numbers arrive as float64 and missing fields as nil.
func fieldString(fields ports.FieldMap, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func rowFromFields(fields ports.FieldMap) domain.Row {
	return domain.Row{
		ID:        fieldString(fields, domain.FieldID),
		Title:     fieldString(fields, domain.FieldTitle),
		Plate:     fieldString(fields, domain.FieldPlate),
		EnteredAt: fieldString(fields, domain.FieldEnteredAt),
		Reason:    domain.NormalizeField(fieldString(fields, domain.FieldReason)),
		Release:   domain.NormalizeField(fieldString(fields, domain.FieldRelease)),
		Note:      domain.NormalizeField(fieldString(fields, domain.FieldNote)),
		Status:    domain.ParseStatus(fieldString(fields, domain.FieldStatus)),
		CreatedAt: fieldString(fields, domain.FieldCreatedAt),
	}
}

// groupEvents folds raw deviation rows into events keyed by title, keeping
// first-seen order so the board is stable between refreshes.
func groupEvents(items []ports.FieldMap) []domain.Event {
	index := make(map[string]int)
	events := make([]domain.Event, 0)

	for _, fields := range items {
		row := rowFromFields(fields)
		if row.Title == "" {
			continue
		}
		pos, ok := index[row.Title]
		if !ok {
			pos = len(events)
			index[row.Title] = pos
			events = append(events, domain.Event{Title: row.Title})
		}
		events[pos].Rows = append(events[pos].Rows, row)
	}
	return events
}

func userFromFields(fields ports.FieldMap) userRecord {
	return userRecord{
		User: domain.User{
			ID:    fieldString(fields, domain.FieldID),
			Name:  fieldString(fields, userFieldName),
			Email: strings.ToLower(fieldString(fields, userFieldEmail)),
			Role:  domain.ParseRole(fieldString(fields, userFieldRole)),
			Areas: domain.NormalizeAreas(fieldString(fields, userFieldAreas)),
		},
		Password: fieldString(fields, userFieldPassword),
	}
}

func usersFromItems(items []ports.FieldMap) []userRecord {
	users := make([]userRecord, 0, len(items))
	for _, fields := range items {
		record := userFromFields(fields)
		if record.User.Email == "" {
			continue
		}
		users = append(users, record)
	}
	return users
}

// parseCreatedAt reads the store's created timestamp, which arrives either as
// ISO-8601 with zone or as the bare store layout.
func parseCreatedAt(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", trimmed, domain.ReferenceLocation()); err == nil {
		return t, true
	}
	return time.Time{}, false
}
