package geo

import "fmt"

const (
	// DefaultHost is matched as a substring of the full request URL.
	DefaultHost = "api.gotinder.com"

	LatKey = "lat"
	LonKey = "lon"
)

// Coordinates is an immutable latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// DefaultCoordinates points at Williamsburg, Brooklyn.
var DefaultCoordinates = Coordinates{Lat: 40.7081, Lon: -73.9571}

func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lon)
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%v, %v)", c.Lat, c.Lon)
}
