package flow

import (
	"strconv"
	"strings"
	"time"
)

// MinVehicleYear is the oldest model year the platform registers.
const MinVehicleYear = 1980

// ValidateYear parses a user-entered model year. Valid years lie in
// [MinVehicleYear, current calendar year].
func currentYear() int { return time.Now().Year() }

func ValidateYear(text string) (bool, int) {
	year, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return false, 0
	}
	if year < MinVehicleYear || year > time.Now().Year() {
		return false, year
	}
	return true, year
}
