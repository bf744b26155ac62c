package domain

import "time"

type Flight struct {
	ID             int64
	FlightNumber   string
	Origin         string
	Destination    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	TotalSeats     int
	AvailableSeats int
	PriceCents     int64
	AirlineID      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FlightFilter narrows a flight search; zero values mean "any".
type FlightFilter struct {
	Origin      string
	Destination string
	Date        time.Time
}
