package auth

import (
	"github.com/zvrva/skybooker/internal/domain"
)

type Action string

const (
	ActionCreateBooking Action = "booking:create"
	ActionViewBooking   Action = "booking:view"
	ActionCancelBooking Action = "booking:cancel"
	ActionCheckIn       Action = "booking:checkin"
	ActionViewPayment   Action = "payment:view"
	ActionRefundPayment Action = "payment:refund"
	ActionCreateFlight  Action = "flight:create"
	ActionUpdateFlight  Action = "flight:update"
	ActionDeleteFlight  Action = "flight:delete"
)

// Policy is the single evaluation point for (subject, resource owner,
// action). Handlers and services delegate here instead of repeating role
// conditionals per endpoint.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

func (Policy) Allow(subject domain.Subject, ownerID int64, action Action) bool {
	if subject.Role == domain.RoleAdmin {
		return true
	}

	switch action {
	case ActionCreateBooking:
		return true
	case ActionViewBooking, ActionCancelBooking, ActionCheckIn, ActionViewPayment, ActionRefundPayment:
		return subject.UserID == ownerID
	case ActionCreateFlight:
		return subject.Role == domain.RoleAirline
	case ActionUpdateFlight, ActionDeleteFlight:
		return subject.Role == domain.RoleAirline
	}
	return false
}
