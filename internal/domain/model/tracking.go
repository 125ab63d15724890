package model

import (
	"strings"

	"github.com/google/uuid"
)

const trackingPrefix = "NYOTA-TRK-"

// DeriveTrackingNumber maps a checkout id to the applicant-facing tracking
// number: the last 8 alphanumeric characters of the id, uppercased. The
// same checkout id always yields the same number, which is what makes the
// success screen safe to recompute on every poll or reload. A random
// segment is used only when the id contains no alphanumerics at all, which
// a real gateway id never does.
//
// Two ids sharing the same trailing 8 alphanumerics collide; callers must
// not assume uniqueness beyond the gateway's own id uniqueness.
func DeriveTrackingNumber(checkoutID string) string {
	var b strings.Builder
	for _, r := range checkoutID {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	suffix := b.String()
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	suffix = strings.ToUpper(suffix)
	if suffix == "" {
		suffix = strings.ToUpper(uuid.NewString()[:8])
	}
	return trackingPrefix + suffix
}
