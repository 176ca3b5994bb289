package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl loads the IANA zone `name`, an empty name means UTC.
func NewStandardImpl(name string) (StandardImpl, error) {
	if name == "" {
		return StandardImpl{location: time.UTC}, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, it exists for tests and reproducible runs.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}
