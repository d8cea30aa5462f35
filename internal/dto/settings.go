package dto

type UserSettings struct {
	PushEnabled          bool    `json:"push_enabled"`
	PushChannel          string  `json:"push_channel,omitempty" validate:"omitempty,oneof=telegram email wechat bark"`
	PushToken            string  `json:"push_token,omitempty"`
	DefaultHoldingPeriod Horizon `json:"default_holding_period,omitempty" validate:"omitempty,oneof=short swing long"`
}

type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
