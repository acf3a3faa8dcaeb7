package db

import "github.com/google/uuid"

// CanonicalID parses s as a UUID and returns its canonical hyphenated form.
// uuid.Parse also accepts urn:uuid: and braced forms that the Postgres UUID
// type rejects, so ids are normalised before they reach a query.
func CanonicalID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
