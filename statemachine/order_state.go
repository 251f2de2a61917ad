package statemachine

import (
	"fmt"
	"strings"

	"food-ordering-api/models"
)

// Transition defines a valid state change and the roles allowed to perform it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Actors []models.UserRole  `json:"actors"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusPreparing,
		Actors: []models.UserRole{models.RoleRestaurantOwner, models.RoleAdmin}},
	{From: models.StatusPending, To: models.StatusCancelled,
		Actors: []models.UserRole{models.RoleCustomer, models.RoleRestaurantOwner, models.RoleAdmin}},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery,
		Actors: []models.UserRole{models.RoleRestaurantOwner, models.RoleDeliveryPerson, models.RoleAdmin}},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered,
		Actors: []models.UserRole{models.RoleDeliveryPerson, models.RoleRestaurantOwner, models.RoleAdmin}},
}

var labels = map[models.OrderStatus]string{
	models.StatusPending:        "Pending",
	models.StatusPreparing:      "In the Kitchen",
	models.StatusOutForDelivery: "Out for Delivery",
	models.StatusDelivered:      "Delivered",
	models.StatusCancelled:      "Cancelled",
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		for _, a := range t.Actors {
			m[transitionKey{t.From, t.To, a}] = true
		}
	}
	return m
}()

// aliases maps folded tokens and display labels onto canonical statuses
var aliases = func() map[string]models.OrderStatus {
	m := make(map[string]models.OrderStatus)
	for status, label := range labels {
		m[fold(string(status))] = status
		m[fold(label)] = status
	}
	m["kitchen"] = models.StatusPreparing
	m["canceled"] = models.StatusCancelled
	return m
}()

func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps a status token or display label onto its canonical status.
func Normalize(s string) (models.OrderStatus, bool) {
	status, ok := aliases[fold(s)]
	return status, ok
}

// Label returns the display string for a status.
func Label(status models.OrderStatus) string {
	if l, ok := labels[status]; ok {
		return l
	}
	return string(status)
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks if a given role can move an order from one state to another
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for role '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
