package notifications

import (
	"encoding/json"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/messaging"
)

// GenerateDebugCurl creates a curl command that replicates an FCM request for
// debugging. The bearer token is left as a placeholder so the output can be
// logged; substitute `gcloud auth print-access-token` or similar.
func GenerateDebugCurl(url string, message *messaging.Message) string {
	payloadJSON, err := json.Marshal(sendRequest{Message: message})
	if err != nil {
		return fmt.Sprintf("# ERROR: Failed to marshal payload: %v", err)
	}

	return fmt.Sprintf(`curl -X POST \
  '%s' \
  -H "Authorization: Bearer $ACCESS_TOKEN" \
  -H 'Content-Type: application/json' \
  -d '%s'`,
		url,
		strings.ReplaceAll(string(payloadJSON), "'", `'\''`))
}
