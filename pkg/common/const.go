package common

const (
	KEY_PRICE_LEVEL = "price_level:%s:%s"
)

// Keys of the local key/value store.
const (
	KEY_CREDENTIAL_TOKEN   = "auth_token"
	KEY_CREDENTIAL_PROFILE = "user_profile"
)

// Persisted UI preference keys.
const (
	KEY_PREF_SEARCH        = "search"
	KEY_PREF_SORT_FIELD    = "sort_field"
	KEY_PREF_SORT_ORDER    = "sort_order"
	KEY_PREF_PERIOD_FILTER = "period_filter"
	KEY_PREF_SIGNAL_FILTER = "signal_filter"
)
