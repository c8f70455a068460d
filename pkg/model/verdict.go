package model

import (
	"encoding/json"
	"sort"
)

// Verdict maps action names to deny reason codes. An empty reason means the
// action is permitted; it serializes as JSON null so the presentation layer
// sees `deny[action] -> reason|null` for every action it may render.
type Verdict map[string]string

// Allowed reports whether the action carries no deny reason.
func (v Verdict) Allowed(action string) bool {
	return v[action] == ""
}

// MarshalJSON emits permitted actions as explicit nulls, keys sorted for
// deterministic output.
func (v Verdict) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]*string, len(v))
	for _, key := range keys {
		if reason := v[key]; reason != "" {
			out[key] = &reason
		} else {
			out[key] = nil
		}
	}
	return json.Marshal(out)
}

// UseableCertificate pairs a certificate type available to an owner with the
// per-type verdicts, computed over the stored certificate or a transient
// draft when none exists yet.
type UseableCertificate struct {
	CertificateType CertificateType `json:"certificateType"`
	Certificate     *Certificate    `json:"certificate,omitempty"`
	Deny            Verdict         `json:"deny"`
}
