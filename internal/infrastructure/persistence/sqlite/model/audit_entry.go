package model

type AuditEntry struct {
	EntryID    uint64 `gorm:"column:entry_id;primaryKey;autoIncrement"`
	EventTitle string `gorm:"column:event_title;type:text;not null;index"`
	Actor      string `gorm:"column:actor;type:text;not null"`
	Action     string `gorm:"column:action;type:text;not null"`
	Detail     string `gorm:"column:detail;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
