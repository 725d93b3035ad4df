package booking

import (
	"fmt"

	"selftape/models"
	"selftape/utils"
)

// SupportedDurations lists the session lengths, in minutes, a reader can price.
var SupportedDurations = []int{15, 30, 60}

// ValidateDuration rejects session lengths other than 15, 30 and 60 minutes.
func ValidateDuration(durationMin int) error {
	for _, d := range SupportedDurations {
		if d == durationMin {
			return nil
		}
	}
	return utils.NewFieldError("durationMin",
		fmt.Sprintf("unsupported session length %d minutes; choose 15, 30 or 60", durationMin))
}

// PriceFor returns the reader's rate in cents for a session length.
func PriceFor(r models.Reader, durationMin int) (int64, error) {
	if err := ValidateDuration(durationMin); err != nil {
		return 0, err
	}
	var cents int64
	switch durationMin {
	case 15:
		cents = r.RatePer15Min
	case 30:
		cents = r.RatePer30Min
	case 60:
		cents = r.RatePer60Min
	}
	if cents <= 0 {
		return 0, utils.NewFieldError("durationMin",
			fmt.Sprintf("this reader does not offer %d-minute sessions", durationMin))
	}
	return cents, nil
}

// PlatformFee is percent of price in cents, rounded half up.
func PlatformFee(priceCents, percent int64) int64 {
	return (priceCents*percent + 50) / 100
}
