package enums

import "fmt"

// RaffleStatus tracks whether a raffle still sells tickets.
type RaffleStatus string

const (
	RaffleStatusActive RaffleStatus = "active"
	RaffleStatusEnded  RaffleStatus = "ended"
	RaffleStatusDrawn  RaffleStatus = "drawn"
)

var validRaffleStatuses = []RaffleStatus{
	RaffleStatusActive,
	RaffleStatusEnded,
	RaffleStatusDrawn,
}

// String implements fmt.Stringer.
func (r RaffleStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RaffleStatus.
func (r RaffleStatus) IsValid() bool {
	for _, candidate := range validRaffleStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRaffleStatus converts raw input into a RaffleStatus.
func ParseRaffleStatus(value string) (RaffleStatus, error) {
	for _, candidate := range validRaffleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid raffle status %q", value)
}
