package helper

import (
	"fmt"

	gutils "github.com/Laisky/go-utils/v5"
)

// GenRequestID returns a time-ordered unique id for one inbound request.
func GenRequestID() string {
	return gutils.UUID7()
}

func MessageWithRequestId(message string, id string) string {
	return fmt.Sprintf("%s (request id: %s)", message, id)
}
