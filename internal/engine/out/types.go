package out

import (
	"encoding/json"
)

type Envelope struct {
	Type string          `json:"type"` // "account"
	Run  string          `json:"run"`
	TS   int64           `json:"ts"` // unix milli
	Data json.RawMessage `json:"data"`
}

const TypeAccount = "account"
