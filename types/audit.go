package types

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleViewer  Role = "VIEWER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type AuditAction string

const (
	AuditActionCreate          AuditAction = "CREATE"
	AuditActionUpdate          AuditAction = "UPDATE"
	AuditActionConfirm         AuditAction = "CONFIRM"
	AuditActionMarkPaid        AuditAction = "MARK_PAID"
	AuditActionDelete          AuditAction = "DELETE"
	AuditActionEmergencyUnlock AuditAction = "EMERGENCY_UNLOCK"
)

const AuditEntitySettlement = "SETTLEMENT"

type AuditLogEntry struct {
	ID          string      `json:"id"`
	ActorID     string      `json:"actorId"`
	EntityType  string      `json:"entityType"`
	EntityID    string      `json:"entityId"`
	Action      AuditAction `json:"action"`
	PriorStatus string      `json:"priorStatus,omitempty"`
	NewStatus   string      `json:"newStatus,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	IsEmergency bool        `json:"isEmergency"`
	CreatedAt   time.Time   `json:"createdAt"`
}
