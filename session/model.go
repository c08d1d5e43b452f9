package session

// Fingerprint identifies the device a session record was first created
// from. It is recorded for audit purposes only; subsequent logins from
// other devices reuse the record without updating it.
type Fingerprint struct {
	IP        string
	UserAgent string
}

// Record is the persisted refresh registry entry for one account. Once
// Valid is false every field is treated as revoked, regardless of content.
type Record struct {
	AccountID     string
	RefreshSecret string
	IP            string
	UserAgent     string
	Valid         bool
	CreatedAt     int64

	// Created is set by GetOrCreate when this call wrote the record. It is
	// never serialized.
	Created bool
}
