package health

import "time"

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// MarketSession is the NSE/BSE equity session at a point in time.
type MarketSession string

const (
	SessionClosed       MarketSession = "CLOSED"
	SessionPreOpen      MarketSession = "PRE_OPEN"
	SessionOpen         MarketSession = "OPEN"
	SessionMISSquareOff MarketSession = "MIS_SQUAREOFF_WARNING"
)

// SessionAt returns the equity session at t. Exchange holidays are not
// known here and report as the weekday session.
func SessionAt(t time.Time) MarketSession {
	now := t.In(IndiaLocation)
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return SessionClosed
	}

	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes >= 9*60 && minutes < 9*60+15:
		return SessionPreOpen
	case minutes >= 15*60 && minutes < 15*60+15:
		// MIS positions are squared off from 15:15
		return SessionMISSquareOff
	case minutes >= 9*60+15 && minutes < 15*60+30:
		return SessionOpen
	}
	return SessionClosed
}

// AcceptsRegularOrders reports whether regular (non-AMO) orders can be
// placed in the session.
func (s MarketSession) AcceptsRegularOrders() bool {
	return s == SessionOpen || s == SessionMISSquareOff || s == SessionPreOpen
}

// NextOpen returns the next 09:15 IST on a weekday after t.
func NextOpen(t time.Time) time.Time {
	now := t.In(IndiaLocation)
	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 15, 0, 0, IndiaLocation)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
