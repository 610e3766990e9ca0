package platform

import "fmt"

// RemoteError carries a non-2xx platform response that does not map to one of
// the sentinel errors in the shared package. Message holds the platform's
// error payload when one was present.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform error: status %d", e.Status)
	}
	return fmt.Sprintf("platform error: status %d: %s", e.Status, e.Message)
}
