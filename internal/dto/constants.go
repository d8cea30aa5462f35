package dto

// Horizon is the holding period a set of price levels and signals belongs to.
type Horizon string

const (
	HorizonShort Horizon = "short"
	HorizonSwing Horizon = "swing"
	HorizonLong  Horizon = "long"
)

// Horizons in display cycle order.
var Horizons = []Horizon{HorizonShort, HorizonSwing, HorizonLong}

func (h Horizon) Valid() bool {
	switch h {
	case HorizonShort, HorizonSwing, HorizonLong:
		return true
	}
	return false
}

// Next returns the following horizon in the short -> swing -> long -> short cycle.
func (h Horizon) Next() Horizon {
	switch h {
	case HorizonShort:
		return HorizonSwing
	case HorizonSwing:
		return HorizonLong
	default:
		return HorizonShort
	}
}

// ParseHorizon maps unknown or empty values to the swing default.
func ParseHorizon(s string) Horizon {
	h := Horizon(s)
	if h.Valid() {
		return h
	}
	return HorizonSwing
}

const (
	SecurityTypeStock = "stock"
	SecurityTypeETF   = "etf"
	SecurityTypeFund  = "fund"
	SecurityTypeLOF   = "lof"
)

const (
	SignalBuy  = "buy"
	SignalSell = "sell"
	SignalHold = "hold"
)

type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

const (
	ReminderBuy  = "buy"
	ReminderSell = "sell"
	ReminderBoth = "both"

	FrequencyTradingDay = "trading_day"
	FrequencyWeekly     = "weekly"
	FrequencyMonthly    = "monthly"
)
